package diagram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/patternscribe/scribe/internal/domain"
	"github.com/patternscribe/scribe/internal/llm"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// RepairLoop drives a broken diagram artifact through a bounded
// validate, check, provider-repair cycle until the checker passes or
// the repair budget is spent. The gateway is only consulted after the
// rule pipeline and checker agree the text is broken.
type RepairLoop struct {
	gateway           llm.Gateway
	checker           SyntaxChecker
	maxRepairAttempts int
	logger            *slog.Logger
}

// NewRepairLoop wires a repair loop over the given collaborators.
// maxRepairAttempts bounds the number of gateway repair calls per
// artifact; values below one fall back to the default of two.
func NewRepairLoop(gateway llm.Gateway, checker SyntaxChecker, maxRepairAttempts int) *RepairLoop {
	if maxRepairAttempts < 1 {
		maxRepairAttempts = 2
	}
	return &RepairLoop{
		gateway:           gateway,
		checker:           checker,
		maxRepairAttempts: maxRepairAttempts,
		logger:            slog.Default().With("component", "repair"),
	}
}

// Run takes a draft artifact to a terminal status. The artifact
// transitions Draft -> SyntaxChecked -> (Valid | Repairing -> ... ->
// Valid | Failed). A Failed artifact carries its final diagnostic in
// FailureReason; Run itself only errors when a collaborator breaks in a
// way that should abort the job (checker tool missing, context done).
func (r *RepairLoop) Run(ctx context.Context, artifact *domain.DiagramArtifact) error {
	validator := NewValidator(artifact.Type)

	text, err := validator.Validate(ExtractSource(artifact.RawText))
	if err != nil {
		artifact.Status = domain.ArtifactFailed
		artifact.FailureReason = "rule pipeline could not produce structurally sound text"
		r.logger.Warn("artifact unrepairable by rules", "type", artifact.Type)
		return nil
	}

	check, err := r.checker.Check(ctx, text)
	if err != nil {
		return fmt.Errorf("syntax check failed to run: %w", err)
	}
	artifact.Status = domain.ArtifactSyntaxChecked

	if check.Passed {
		artifact.ValidatedText = text
		artifact.Status = domain.ArtifactValid
		return nil
	}

	diagnostic := check.Diagnostic
	for attempt := 1; attempt <= r.maxRepairAttempts; attempt++ {
		artifact.Status = domain.ArtifactRepairing
		r.logger.Info("repairing artifact",
			"type", artifact.Type,
			"attempt", attempt,
			"max_attempts", r.maxRepairAttempts)

		result, err := r.gateway.Complete(ctx, llm.CompletionRequest{
			Operation:    transport.OpDiagramRepair,
			Prompt:       RepairPrompt(artifact.Type, text, diagnostic),
			SystemPrompt: repairSystemPrompt,
		})
		if err != nil {
			// Gateway exhaustion fails this artifact, not the job.
			artifact.Status = domain.ArtifactFailed
			artifact.FailureReason = fmt.Sprintf("repair completion failed: %v", err)
			artifact.Repairs = append(artifact.Repairs, domain.RepairAttempt{
				Index:      attempt,
				Diagnostic: diagnostic,
			})
			return nil
		}

		repaired, err := validator.Validate(ExtractSource(result.Content))
		if err != nil {
			artifact.Repairs = append(artifact.Repairs, domain.RepairAttempt{
				Index:      attempt,
				Diagnostic: diagnostic,
				ResultText: result.Content,
			})
			diagnostic = "repaired text failed structural validation"
			continue
		}

		check, err := r.checker.Check(ctx, repaired)
		if err != nil {
			return fmt.Errorf("syntax check failed to run: %w", err)
		}
		artifact.Status = domain.ArtifactSyntaxChecked
		artifact.Repairs = append(artifact.Repairs, domain.RepairAttempt{
			Index:      attempt,
			Diagnostic: diagnostic,
			ResultText: repaired,
		})

		if check.Passed {
			artifact.ValidatedText = repaired
			artifact.Status = domain.ArtifactValid
			return nil
		}

		text = repaired
		diagnostic = check.Diagnostic
	}

	artifact.Status = domain.ArtifactFailed
	artifact.FailureReason = fmt.Sprintf("still invalid after %d repair attempts: %s",
		r.maxRepairAttempts, diagnostic)
	return nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:plantuml|puml|uml)?\\s*\\n(.*?)```")

// ExtractSource pulls diagram source out of a completion. Providers
// wrap code in markdown fences or add prose around the markers; the
// text between @startuml and @enduml is what we keep.
func ExtractSource(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.Index(text, "@startuml")
	end := strings.LastIndex(text, "@enduml")
	if start >= 0 && end > start {
		return strings.TrimSpace(text[start : end+len("@enduml")])
	}
	return strings.TrimSpace(text)
}
