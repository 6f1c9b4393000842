package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/pkg/activity"
	"github.com/patternscribe/scribe/pkg/events"
)

// jobCompletedEvent is emitted once per job with its terminal outcome.
type jobCompletedEvent struct {
	EntityName          string           `json:"entity_name"`
	Status              domain.JobStatus `json:"status"`
	DocumentPath        string           `json:"document_path,omitempty"`
	PatternsAnalyzed    int              `json:"patterns_analyzed"`
	SignificantPatterns int              `json:"significant_patterns"`
	ArtifactsAttempted  int              `json:"artifacts_attempted"`
	SuccessfulDiagrams  int              `json:"successful_diagrams"`
	FailedDiagrams      int              `json:"failed_diagrams"`
	Error               string           `json:"error,omitempty"`
	CompletedAt         time.Time        `json:"completed_at"`
}

// artifactFinishedEvent is emitted per diagram artifact when it reaches
// a terminal status, successful or not.
type artifactFinishedEvent struct {
	EntityName    string                `json:"entity_name"`
	DiagramType   domain.DiagramType    `json:"diagram_type"`
	Status        domain.ArtifactStatus `json:"status"`
	RepairCount   int                   `json:"repair_count"`
	Rendered      bool                  `json:"rendered"`
	FailureReason string                `json:"failure_reason,omitempty"`
	FinishedAt    time.Time             `json:"finished_at"`
}

// EventEmitter handles event emission for the generation domain.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an EventEmitter over the base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitJobCompleted emits the terminal job event, best-effort.
func (e *EventEmitter) EmitJobCompleted(ctx context.Context, result *domain.JobResult) {
	wfCtx := e.base.GetWorkflowContext(ctx)

	payload, err := json.Marshal(jobCompletedEvent{
		EntityName:          result.EntityName,
		Status:              result.Status,
		DocumentPath:        result.DocumentPath,
		PatternsAnalyzed:    result.PatternsAnalyzed,
		SignificantPatterns: result.SignificantPatterns,
		ArtifactsAttempted:  result.ArtifactsAttempted,
		SuccessfulDiagrams:  result.SuccessfulDiagrams,
		FailedDiagrams:      result.FailedDiagrams,
		Error:               result.Error,
		CompletedAt:         time.Now(),
	})
	if err != nil {
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           "generation.job_completed",
		Source:         "generation-orchestrator",
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s:job", wfCtx.WorkflowID, result.EntityName),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "job completed event")
}

// EmitArtifactFinished emits a per-artifact terminal event, best-effort.
func (e *EventEmitter) EmitArtifactFinished(ctx context.Context, entityName string, artifact *domain.DiagramArtifact) {
	wfCtx := e.base.GetWorkflowContext(ctx)

	payload, err := json.Marshal(artifactFinishedEvent{
		EntityName:    entityName,
		DiagramType:   artifact.Type,
		Status:        artifact.Status,
		RepairCount:   len(artifact.Repairs),
		Rendered:      artifact.Rendered(),
		FailureReason: artifact.FailureReason,
		FinishedAt:    time.Now(),
	})
	if err != nil {
		return
	}

	e.base.EmitEventSafe(ctx, events.Envelope{
		ID:             uuid.New().String(),
		Type:           "generation.artifact_finished",
		Source:         "generation-orchestrator",
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", wfCtx.WorkflowID, entityName, artifact.Type),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}, "artifact finished event")
}
