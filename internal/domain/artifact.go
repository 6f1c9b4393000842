package domain

import (
	"fmt"
	"strings"
)

// DiagramType enumerates the fixed set of diagram artifacts a job produces.
// Using typed constants instead of raw strings provides compile-time safety
// and prevents typos that could bypass validation.
type DiagramType string

const (
	// DiagramArchitecture is a component/deployment overview diagram.
	DiagramArchitecture DiagramType = "architecture"

	// DiagramSequence shows the main interaction flow between collaborators.
	DiagramSequence DiagramType = "sequence"

	// DiagramUseCases captures actor-facing capabilities.
	DiagramUseCases DiagramType = "use-cases"

	// DiagramClass is the structural class/relationship diagram.
	DiagramClass DiagramType = "class"
)

// AllDiagramTypes returns the full diagram set in generation order.
// The slice is freshly allocated; callers may mutate it.
func AllDiagramTypes() []DiagramType {
	return []DiagramType{DiagramArchitecture, DiagramSequence, DiagramUseCases, DiagramClass}
}

// Valid reports whether t is a member of the fixed diagram set.
func (t DiagramType) Valid() bool {
	switch t {
	case DiagramArchitecture, DiagramSequence, DiagramUseCases, DiagramClass:
		return true
	default:
		return false
	}
}

// Structural reports whether the diagram type supports class-style
// relationship operators and member lists. Only structural diagrams may
// carry composition/aggregation/inheritance arrows.
func (t DiagramType) Structural() bool { return t == DiagramClass }

// ArtifactStatus tracks a diagram artifact through the repair state machine.
type ArtifactStatus string

const (
	// ArtifactDraft holds raw generated text, not yet validated.
	ArtifactDraft ArtifactStatus = "draft"

	// ArtifactSyntaxChecked means the external checker has run at least once.
	ArtifactSyntaxChecked ArtifactStatus = "syntax_checked"

	// ArtifactRepairing means a provider-assisted repair attempt is in flight.
	ArtifactRepairing ArtifactStatus = "repairing"

	// ArtifactValid is terminal success: the checker accepted the text.
	ArtifactValid ArtifactStatus = "valid"

	// ArtifactFailed is terminal failure: repair budget exhausted or the
	// text was unrepairable by rule-based fixing.
	ArtifactFailed ArtifactStatus = "failed"
)

// Terminal reports whether the status ends the repair loop.
func (s ArtifactStatus) Terminal() bool {
	return s == ArtifactValid || s == ArtifactFailed
}

// RepairAttempt records one provider-assisted repair cycle.
// The list on an artifact is bounded by the configured repair budget.
type RepairAttempt struct {
	// Index is the 1-based attempt number.
	Index int `json:"index"`

	// Diagnostic is the checker stderr text that triggered this attempt.
	Diagnostic string `json:"diagnostic"`

	// ResultText is the provider's repaired diagram source.
	ResultText string `json:"result_text"`
}

// DiagramArtifact is one (job, type) diagram instance moving through
// generation, validation, and repair. It lives only for the duration of
// the job; terminal state is reported through the job result.
type DiagramArtifact struct {
	Type DiagramType `json:"type"`

	// RawText is the provider's original diagram source.
	RawText string `json:"raw_text"`

	// ValidatedText is the rule-fixed source; empty until the validator
	// has produced output.
	ValidatedText string `json:"validated_text,omitempty"`

	// SourcePath is the persisted .puml location; empty until written.
	SourcePath string `json:"source_path,omitempty"`

	// ImagePath is the rendered PNG location; empty until rendered and
	// confirmed on disk. A Valid artifact without an image is reported as
	// validated-but-not-rendered, never downgraded.
	ImagePath string `json:"image_path,omitempty"`

	Status ArtifactStatus `json:"status"`

	// Repairs holds the bounded repair history, most recent last.
	Repairs []RepairAttempt `json:"repairs,omitempty"`

	// FailureReason explains a terminal ArtifactFailed status.
	FailureReason string `json:"failure_reason,omitempty"`
}

// NewDiagramArtifact creates a draft artifact for the given type.
func NewDiagramArtifact(t DiagramType, raw string) *DiagramArtifact {
	return &DiagramArtifact{Type: t, RawText: raw, Status: ArtifactDraft}
}

// Rendered reports whether a confirmed image exists for the artifact.
func (a *DiagramArtifact) Rendered() bool { return a.ImagePath != "" }

// FileStem returns the base name for the artifact's files:
// "<slug>-<type>". The caller appends the extension.
func (a *DiagramArtifact) FileStem(entitySlug string) string {
	return fmt.Sprintf("%s-%s", entitySlug, a.Type)
}

// Slug converts an entity name into a filesystem- and URL-safe token.
// Runs of non-alphanumeric characters collapse into single hyphens.
func Slug(name string) string {
	name = strings.ToLower(name)

	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if b.Len() > 0 && b.String()[b.Len()-1] != '-' {
			b.WriteRune('-')
		}
	}

	return strings.Trim(b.String(), "-")
}
