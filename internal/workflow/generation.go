package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/generation"
)

// GenerationWorkflow runs one documentation job to a terminal
// JobResult. Diagram activities run as parallel futures, one per
// requested type, and join before narrative finalization. A failed
// diagram activity degrades that artifact; only narrative and write
// activities can fail the workflow.
func GenerationWorkflow(
	ctx workflow.Context,
	req domain.GenerationRequest,
) (*domain.JobResult, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "generation.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid generation request",
			"Validation",
			err,
		)
	}

	logger := workflow.GetLogger(ctx)

	result := &domain.JobResult{
		Status:              domain.JobIdle,
		EntityName:          req.EntityName,
		PatternsAnalyzed:    len(req.Patterns),
		Significance:        domain.Distribution(req.Patterns),
		SignificantPatterns: domain.CountSignificant(req.Patterns, domain.DefaultSignificanceThreshold),
	}

	// The gate is pure arithmetic over the request, so it runs inside
	// the workflow and skipped jobs never schedule an activity.
	if result.SignificantPatterns == 0 {
		result.Status = domain.JobSkipped
		logger.Info("generation skipped, no significant patterns",
			"entity", req.EntityName,
			"distribution", result.Significance.String())
		return result, nil
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var acts *generation.Activities

	var draft string
	if err := workflow.ExecuteActivity(ctx, acts.GenerateDraft, req).Get(ctx, &draft); err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Status = domain.JobContentDraft

	result.Status = domain.JobDiagramsInFlight
	types := req.Diagrams()
	futures := make([]workflow.Future, len(types))
	for i, diagramType := range types {
		futures[i] = workflow.ExecuteActivity(ctx, acts.BuildDiagram, generation.BuildDiagramInput{
			Request:     req,
			DiagramType: diagramType,
			Draft:       draft,
		})
	}

	artifacts := make([]*domain.DiagramArtifact, len(types))
	for i, future := range futures {
		var artifact domain.DiagramArtifact
		if err := future.Get(ctx, &artifact); err != nil {
			failed := domain.NewDiagramArtifact(types[i], "")
			failed.Status = domain.ArtifactFailed
			failed.FailureReason = fmt.Sprintf("diagram activity failed: %v", err)
			artifacts[i] = failed
			continue
		}
		artifacts[i] = &artifact
	}

	var finalDoc string
	err := workflow.ExecuteActivity(ctx, acts.FinalizeNarrative, generation.FinalizeInput{
		Request:   req,
		Draft:     draft,
		Artifacts: artifacts,
	}).Get(ctx, &finalDoc)
	if err != nil {
		result.RecordArtifacts(artifacts)
		result.Error = err.Error()
		return result, err
	}
	result.Status = domain.JobContentFinal

	var out generation.WriteOutput
	err = workflow.ExecuteActivity(ctx, acts.WriteJob, generation.WriteInput{
		EntityName: req.EntityName,
		Narrative:  finalDoc,
		Artifacts:  artifacts,
	}).Get(ctx, &out)
	if err != nil {
		result.Status = domain.JobRolledBack
		result.RecordArtifacts(artifacts)
		result.Error = err.Error()
		return result, err
	}

	result.Status = domain.JobWritten
	result.DocumentPath = out.DocumentPath
	result.DocumentsGenerated = 1
	result.RecordArtifacts(out.Artifacts)
	logger.Info("generation complete",
		"entity", req.EntityName,
		"document", out.DocumentPath,
		"diagrams_ok", result.SuccessfulDiagrams,
		"diagrams_failed", result.FailedDiagrams)
	return result, nil
}
