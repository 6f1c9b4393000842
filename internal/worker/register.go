package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/patternscribe/scribe/internal/generation"
	"github.com/patternscribe/scribe/internal/workflow"
	"github.com/patternscribe/scribe/pkg/activity"
	"github.com/patternscribe/scribe/pkg/events"
)

// RegisterAll registers the generation workflow and its activities with
// a Temporal worker. Call once during startup before the worker runs;
// registration is not safe for concurrent use.
func RegisterAll(w sdkworker.Worker, orchestrator *generation.Orchestrator, sink events.EventSink) {
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}
	base := activity.NewBaseActivities(sink)
	acts := generation.NewActivities(base, orchestrator)

	w.RegisterWorkflow(workflow.GenerationWorkflow)

	w.RegisterActivity(acts.GenerateDraft)
	w.RegisterActivity(acts.BuildDiagram)
	w.RegisterActivity(acts.FinalizeNarrative)
	w.RegisterActivity(acts.WriteJob)
}
