package generation

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/patternscribe/scribe/internal/domain"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/pkg/activity"
)

// Activities exposes the orchestrator's stages as Temporal activities
// so the workflow can fan diagram work out across activity futures.
type Activities struct {
	activity.BaseActivities
	orchestrator *Orchestrator
}

// NewActivities creates generation activities over an orchestrator.
func NewActivities(base activity.BaseActivities, orchestrator *Orchestrator) *Activities {
	return &Activities{BaseActivities: base, orchestrator: orchestrator}
}

// BuildDiagramInput carries one diagram task from workflow to activity.
type BuildDiagramInput struct {
	Request     domain.GenerationRequest `json:"request"`
	DiagramType domain.DiagramType       `json:"diagram_type"`
	Draft       string                   `json:"draft"`
}

// FinalizeInput carries the narrative finalization stage inputs.
type FinalizeInput struct {
	Request   domain.GenerationRequest  `json:"request"`
	Draft     string                    `json:"draft"`
	Artifacts []*domain.DiagramArtifact `json:"artifacts"`
}

// WriteInput carries the persistence stage inputs.
type WriteInput struct {
	EntityName string                    `json:"entity_name"`
	Narrative  string                    `json:"narrative"`
	Artifacts  []*domain.DiagramArtifact `json:"artifacts"`
}

// WriteOutput reports the persistence stage outcome.
type WriteOutput struct {
	DocumentPath string                    `json:"document_path"`
	Artifacts    []*domain.DiagramArtifact `json:"artifacts"`
}

// GenerateDraft produces the first-pass narrative. Provider exhaustion
// is non-retryable: the gateway has already walked the full fallback
// chain, so a Temporal retry would only repeat it.
func (a *Activities) GenerateDraft(ctx context.Context, req domain.GenerationRequest) (string, error) {
	activity.SafeLog(ctx, "Starting narrative draft", "entity", req.EntityName)

	draft, err := a.orchestrator.Draft(ctx, req)
	if err != nil {
		if errors.Is(err, llmerrors.ErrAllProvidersExhausted) {
			return "", nonRetryable("GenerateDraft", err, "all providers exhausted")
		}
		return "", retryable("GenerateDraft", err, "draft generation failed")
	}
	return draft, nil
}

// BuildDiagram runs one diagram through generation and the repair loop.
// Artifact-level failures live on the returned artifact, never in the
// error: a failed diagram must not fail its workflow.
func (a *Activities) BuildDiagram(ctx context.Context, input BuildDiagramInput) (*domain.DiagramArtifact, error) {
	activity.SafeLog(ctx, "Building diagram",
		"entity", input.Request.EntityName,
		"type", input.DiagramType)
	a.RecordHeartbeat(ctx, string(input.DiagramType))

	artifact := a.orchestrator.BuildArtifact(ctx, input.Request, input.DiagramType, input.Draft)
	return artifact, nil
}

// FinalizeNarrative regenerates the narrative with validated diagram
// references.
func (a *Activities) FinalizeNarrative(ctx context.Context, input FinalizeInput) (string, error) {
	activity.SafeLog(ctx, "Finalizing narrative", "entity", input.Request.EntityName)

	final, err := a.orchestrator.Finalize(ctx, input.Request, input.Draft, input.Artifacts)
	if err != nil {
		if errors.Is(err, llmerrors.ErrAllProvidersExhausted) {
			return "", nonRetryable("FinalizeNarrative", err, "all providers exhausted")
		}
		return "", retryable("FinalizeNarrative", err, "narrative finalization failed")
	}
	return final, nil
}

// WriteJob persists the job through the sequential writer stage.
// The writer already rolled back partial diagram files on failure, so a
// Temporal retry starts from a clean directory.
func (a *Activities) WriteJob(ctx context.Context, input WriteInput) (*WriteOutput, error) {
	activity.SafeLog(ctx, "Writing job output", "entity", input.EntityName)

	docPath, err := a.orchestrator.Writer().Write(ctx, input.EntityName, input.Narrative, input.Artifacts)
	if err != nil {
		return nil, retryable("WriteJob", err, "persistence failed")
	}
	return &WriteOutput{DocumentPath: docPath, Artifacts: input.Artifacts}, nil
}

// nonRetryable wraps an error as a Temporal non-retryable application
// error for permanent failures where retry cannot change the outcome.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// retryable wraps an error as a Temporal retryable application error
// for transient failures that may succeed on retry with backoff.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationErrorWithCause(msg, tag, cause)
}
