// Package events provides the generic event infrastructure for domain
// event emission. It defines the Envelope type wrapping domain events
// with consistent metadata and the EventSink interface events flow
// through.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope wraps domain events with consistent metadata for reliable
// event processing. It is a generic container for any domain-specific
// payload with standard fields for routing, idempotency, and
// observability.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing and processing.
	// Examples: "generation.job_completed", "generation.artifact_finished".
	Type string `json:"type"`

	// Source identifies the component that emitted this event.
	Source string `json:"source"`

	// Version enables schema evolution. Starts at "1.0.0".
	Version string `json:"version"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey deduplicates events re-emitted during retries.
	IdempotencyKey string `json:"idempotency_key"`

	// WorkflowID identifies the workflow execution that triggered this
	// event.
	WorkflowID string `json:"workflow_id"`

	// RunID distinguishes retries of the same workflow.
	RunID string `json:"run_id"`

	// Payload contains the domain-specific event data as JSON. Schema
	// varies by Type and Version.
	Payload json.RawMessage `json:"payload"`
}

// EventSink is the interface for emitting events to downstream
// consumers. Implementations should handle idempotency and return
// quickly; events are observability, not correctness, and callers never
// fail their primary operation over a sink error.
type EventSink interface {
	// Append adds an event to the sink with best-effort delivery.
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards every event. Used in tests and when event
// emission is disabled.
type NoOpEventSink struct{}

// Append implements EventSink with no-op behavior.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a new no-op event sink.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
