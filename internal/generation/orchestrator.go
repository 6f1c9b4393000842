package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/patternscribe/scribe/internal/diagram"
	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/llm"
	"github.com/patternscribe/scribe/internal/llm/configuration"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// Orchestrator runs a complete generation job: significance gate,
// narrative draft, bounded diagram fan-out with repair, narrative
// finalization, and persistence. All provider access goes through the
// gateway; the output directory is only touched in the final sequential
// writer stage.
type Orchestrator struct {
	gateway  llm.Gateway
	repair   *diagram.RepairLoop
	writer   *Writer
	events   *EventEmitter
	recorder EntityRecorder
	cfg      configuration.GenerationConfig
	logger   *slog.Logger
}

// EntityRecorder registers a successfully documented entity with an
// external knowledge store. Failures are logged and swallowed.
type EntityRecorder interface {
	RecordGeneration(ctx context.Context, req domain.GenerationRequest, result *domain.JobResult) error
}

// WithEntityRecorder attaches a knowledge-store recorder. Optional.
func (o *Orchestrator) WithEntityRecorder(r EntityRecorder) *Orchestrator {
	o.recorder = r
	return o
}

// NewOrchestrator wires an orchestrator over its collaborators. events
// may be nil to disable event emission.
func NewOrchestrator(
	gateway llm.Gateway,
	repair *diagram.RepairLoop,
	writer *Writer,
	events *EventEmitter,
	cfg configuration.GenerationConfig,
) *Orchestrator {
	if cfg.SignificanceThreshold <= 0 {
		cfg.SignificanceThreshold = domain.DefaultSignificanceThreshold
	}
	return &Orchestrator{
		gateway: gateway,
		repair:  repair,
		writer:  writer,
		events:  events,
		cfg:     cfg,
		logger:  slog.Default().With("component", "orchestrator"),
	}
}

// Run executes one job to a terminal JobResult. Single-artifact
// failures never escalate; narrative failures abort before any disk
// write. The returned error is non-nil only for job-fatal conditions,
// and the result always carries counts and diagnostics.
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest) (*domain.JobResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}

	result := &domain.JobResult{
		Status:              domain.JobIdle,
		EntityName:          req.EntityName,
		PatternsAnalyzed:    len(req.Patterns),
		Significance:        domain.Distribution(req.Patterns),
		SignificantPatterns: domain.CountSignificant(req.Patterns, o.cfg.SignificanceThreshold),
	}

	// Entry gate: nothing below the threshold justifies provider calls.
	if result.SignificantPatterns == 0 {
		result.Status = domain.JobSkipped
		o.logger.Info("job skipped, no significant patterns",
			"entity", req.EntityName,
			"threshold", o.cfg.SignificanceThreshold,
			"distribution", result.Significance.String())
		o.emitJobCompleted(ctx, result)
		return result, nil
	}

	draft, err := o.Draft(ctx, req)
	if err != nil {
		result.Error = err.Error()
		o.emitJobCompleted(ctx, result)
		return result, err
	}
	result.Status = domain.JobContentDraft

	result.Status = domain.JobDiagramsInFlight
	artifacts := o.fanOutDiagrams(ctx, req, draft)

	finalDoc, err := o.Finalize(ctx, req, draft, artifacts)
	if err != nil {
		result.Error = err.Error()
		result.RecordArtifacts(artifacts)
		o.emitJobCompleted(ctx, result)
		return result, err
	}
	result.Status = domain.JobContentFinal

	docPath, err := o.writer.Write(ctx, req.EntityName, finalDoc, artifacts)
	result.RecordArtifacts(artifacts)
	if err != nil {
		result.Status = domain.JobRolledBack
		result.Error = err.Error()
		o.emitJobCompleted(ctx, result)
		return result, err
	}

	result.Status = domain.JobWritten
	result.DocumentPath = docPath
	result.DocumentsGenerated = 1
	if o.recorder != nil {
		if err := o.recorder.RecordGeneration(ctx, req, result); err != nil {
			o.logger.Warn("entity record failed", "entity", req.EntityName, "error", err)
		}
	}
	o.logger.Info("job complete",
		"entity", req.EntityName,
		"document", docPath,
		"diagrams_ok", result.SuccessfulDiagrams,
		"diagrams_failed", result.FailedDiagrams)
	o.emitJobCompleted(ctx, result)
	return result, nil
}

// Draft generates the first-pass narrative. A gateway failure or blank
// result is job-fatal; the caller must not write anything afterwards.
func (o *Orchestrator) Draft(ctx context.Context, req domain.GenerationRequest) (string, error) {
	res, err := o.gateway.Complete(ctx, llm.CompletionRequest{
		Operation:    transport.OpNarrativeDraft,
		Prompt:       draftPrompt(req, o.cfg.SignificanceThreshold),
		SystemPrompt: narrativeSystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: draft: %w", ErrContentGenerationFailed, err)
	}
	return res.Content, nil
}

// BuildArtifact generates one diagram and drives it through the repair
// loop to a terminal status. Failures stay on the artifact.
func (o *Orchestrator) BuildArtifact(ctx context.Context, req domain.GenerationRequest, diagramType domain.DiagramType, draft string) *domain.DiagramArtifact {
	res, err := o.gateway.Complete(ctx, llm.CompletionRequest{
		Operation:    transport.OpDiagram,
		Prompt:       diagram.GenerationPrompt(diagramType, req.EntityName, draft),
		SystemPrompt: narrativeSystemPrompt,
	})
	if err != nil {
		artifact := domain.NewDiagramArtifact(diagramType, "")
		artifact.Status = domain.ArtifactFailed
		artifact.FailureReason = fmt.Sprintf("diagram generation failed: %v", err)
		return artifact
	}

	artifact := domain.NewDiagramArtifact(diagramType, res.Content)
	if err := o.repair.Run(ctx, artifact); err != nil {
		artifact.Status = domain.ArtifactFailed
		artifact.FailureReason = fmt.Sprintf("repair loop aborted: %v", err)
	}
	o.emitArtifactFinished(ctx, req.EntityName, artifact)
	return artifact
}

// fanOutDiagrams runs one repair-loop task per requested diagram type.
// Parallelism equals the type-set size; every task owns its slot and no
// state is shared. The join waits for all tasks regardless of outcome.
func (o *Orchestrator) fanOutDiagrams(ctx context.Context, req domain.GenerationRequest, draft string) []*domain.DiagramArtifact {
	types := req.Diagrams()
	artifacts := make([]*domain.DiagramArtifact, len(types))

	var wg sync.WaitGroup
	for i, diagramType := range types {
		wg.Add(1)
		go func(slot int, dt domain.DiagramType) {
			defer wg.Done()
			artifacts[slot] = o.BuildArtifact(ctx, req, dt, draft)
		}(i, diagramType)
	}
	wg.Wait()

	return artifacts
}

// Finalize regenerates the narrative with references to every valid
// artifact. Like the draft, a failure here is job-fatal and precedes
// any write.
func (o *Orchestrator) Finalize(ctx context.Context, req domain.GenerationRequest, draft string, artifacts []*domain.DiagramArtifact) (string, error) {
	res, err := o.gateway.Complete(ctx, llm.CompletionRequest{
		Operation:    transport.OpNarrativeFinal,
		Prompt:       finalPrompt(req, o.cfg.SignificanceThreshold, draft, artifacts),
		SystemPrompt: narrativeSystemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: finalize: %w", ErrContentGenerationFailed, err)
	}
	return res.Content, nil
}

// Writer exposes the persistence stage for activity wiring.
func (o *Orchestrator) Writer() *Writer { return o.writer }

func (o *Orchestrator) emitJobCompleted(ctx context.Context, result *domain.JobResult) {
	if o.events != nil {
		o.events.EmitJobCompleted(ctx, result)
	}
}

func (o *Orchestrator) emitArtifactFinished(ctx context.Context, entityName string, artifact *domain.DiagramArtifact) {
	if o.events != nil {
		o.events.EmitArtifactFinished(ctx, entityName, artifact)
	}
}
