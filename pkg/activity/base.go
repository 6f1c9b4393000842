// Package activity provides common infrastructure for Temporal activity
// implementations: base types, context extraction, safe logging, and
// event emission utilities shared across domain activity packages.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/patternscribe/scribe/pkg/events"
)

// WorkflowContext contains metadata extracted from the Temporal
// activity context, with fallback values for test scenarios.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities provides common infrastructure for all activity types:
// event emission, context extraction, and safe logging that works both
// inside Temporal activity contexts and in plain test contexts.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities creates a BaseActivities with the provided event
// sink. The sink may be nil when event emission is not needed.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext safely extracts workflow context from the activity
// context. Outside a Temporal activity (where activity.GetInfo panics)
// it generates stable test IDs instead.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx.WorkflowID = "local"
				wfCtx.RunID = "local-run-" + uuid.New().String()[:8]
				wfCtx.ActivityID = "local-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// EmitEventSafe provides best-effort event emission with a short retry.
// Sink failures are logged and swallowed; events matter for
// observability but never for correctness.
func (b *BaseActivities) EmitEventSafe(ctx context.Context, envelope events.Envelope, description string) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("Event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("Event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("Failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// RecordHeartbeat safely records a heartbeat in the Temporal activity
// context. Safe to call in non-activity contexts where it is ignored.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog performs context-safe logging that works in both activity and
// test contexts. Outside an activity context the call is ignored.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError is SafeLog at ERROR level.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat safely records activity heartbeat with details.
// Heartbeats keep long-running activities from timing out; non-activity
// contexts are handled safely.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.RecordHeartbeat(ctx, details...)
}
