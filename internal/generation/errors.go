// Package generation orchestrates documentation jobs: significance
// gating, narrative drafting, bounded diagram fan-out with repair, and
// all-or-nothing persistence of the results.
package generation

import "errors"

// Job-fatal errors surfaced by the orchestrator.
var (
	// ErrContentGenerationFailed means the narrative could not be
	// generated. The job aborts before any disk write.
	ErrContentGenerationFailed = errors.New("content generation failed")

	// ErrWriteFailed means the narrative write failed after diagram
	// files were persisted; the writer rolled those files back.
	ErrWriteFailed = errors.New("narrative write failed")
)
