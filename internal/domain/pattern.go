package domain

import "fmt"

// Significance bounds for extracted patterns. Scores outside this range
// indicate a broken extractor and fail validation.
const (
	MinSignificance = 1
	MaxSignificance = 10
)

// DefaultSignificanceThreshold is the minimum score a pattern must reach
// for a generation job to run at all.
const DefaultSignificanceThreshold = 3

// Pattern is a single extracted insight handed to the generation pipeline.
// Patterns are produced by an out-of-scope extraction collaborator; the
// pipeline only reads them for gating and prompt context.
type Pattern struct {
	// Name identifies the pattern (e.g. "repository-per-aggregate").
	Name string `json:"name" validate:"required"`

	// Category groups related patterns (e.g. "architecture", "testing").
	Category string `json:"category" validate:"required"`

	// Significance scores technical importance on a 1-10 scale.
	Significance int `json:"significance" validate:"min=1,max=10"`

	// Evidence holds the supporting observations for the pattern.
	Evidence []string `json:"evidence,omitempty"`
}

// Validate checks the pattern against its field constraints.
func (p Pattern) Validate() error { return validate.Struct(p) }

// PatternSource exposes the extraction collaborator to the pipeline.
// Implementations are out of scope; the orchestrator only needs the list.
type PatternSource interface {
	// Patterns returns the extracted patterns for the entity under analysis.
	Patterns() []Pattern
}

// SignificanceDistribution buckets pattern scores for skip diagnostics.
// When a job is gated out, the distribution explains why generation did
// not run without forcing callers to re-derive it.
type SignificanceDistribution struct {
	Low    int `json:"low"`    // scores 1-3
	Medium int `json:"medium"` // scores 4-6
	High   int `json:"high"`   // scores 7-10
}

// Add records a score in its bucket. Out-of-range scores land in the
// nearest bucket so diagnostics never drop a pattern.
func (d *SignificanceDistribution) Add(score int) {
	switch {
	case score <= 3:
		d.Low++
	case score <= 6:
		d.Medium++
	default:
		d.High++
	}
}

// String renders the distribution for log output.
func (d SignificanceDistribution) String() string {
	return fmt.Sprintf("low(1-3)=%d medium(4-6)=%d high(7-10)=%d", d.Low, d.Medium, d.High)
}

// CountSignificant returns how many patterns meet the threshold.
func CountSignificant(patterns []Pattern, threshold int) int {
	n := 0
	for _, p := range patterns {
		if p.Significance >= threshold {
			n++
		}
	}
	return n
}

// Distribution computes the significance distribution for a pattern set.
func Distribution(patterns []Pattern) SignificanceDistribution {
	var d SignificanceDistribution
	for _, p := range patterns {
		d.Add(p.Significance)
	}
	return d
}
