// Package worker wires the generation pipeline's collaborators together
// for a Temporal worker process, keeping activity packages free of
// startup concerns.
package worker

import (
	"context"
	"fmt"

	"github.com/patternscribe/scribe/internal/diagram"
	"github.com/patternscribe/scribe/internal/generation"
	"github.com/patternscribe/scribe/internal/knowledge"
	"github.com/patternscribe/scribe/internal/llm"
	"github.com/patternscribe/scribe/internal/llm/configuration"
	"github.com/patternscribe/scribe/pkg/activity"
	"github.com/patternscribe/scribe/pkg/events"
)

// BuildOrchestrator assembles the full generation pipeline from
// configuration: gateway, checker, optional renderer, repair loop,
// writer, event emitter, and the optional knowledge store.
func BuildOrchestrator(ctx context.Context, cfg *configuration.Config, sink events.EventSink) (*generation.Orchestrator, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}

	gateway, err := llm.NewGateway(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion gateway: %w", err)
	}

	checker := diagram.NewPlantUMLChecker(cfg.Checker)

	var renderer diagram.Renderer
	if cfg.Renderer.Enabled {
		renderer = diagram.NewPlantUMLRenderer(cfg.Renderer)
	}

	repair := diagram.NewRepairLoop(gateway, checker, cfg.Generation.MaxRepairAttempts)
	writer := generation.NewWriter(cfg.Output, renderer)

	base := activity.NewBaseActivities(sink)
	emitter := generation.NewEventEmitter(base)

	orchestrator := generation.NewOrchestrator(gateway, repair, writer, emitter, cfg.Generation)

	if cfg.Knowledge.Enabled {
		store, err := knowledge.NewStore(ctx, cfg.Knowledge)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize knowledge store: %w", err)
		}
		orchestrator.WithEntityRecorder(store)
	}

	return orchestrator, nil
}
