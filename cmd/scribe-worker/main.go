// Command scribe-worker runs a Temporal worker hosting the documentation
// generation workflow and its activities.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	"github.com/patternscribe/scribe/internal/worker"
	"github.com/patternscribe/scribe/pkg/events"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	setupLogging(*logLevel)

	cfg, err := configuration.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	sink := events.NewNoOpEventSink()

	orchestrator, err := worker.BuildOrchestrator(context.Background(), cfg, sink)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("connect to temporal: %w", err)
	}
	defer c.Close()

	w := sdkworker.New(c, cfg.Temporal.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, orchestrator, sink)

	slog.Info("worker starting",
		"task_queue", cfg.Temporal.TaskQueue,
		"namespace", cfg.Temporal.Namespace,
		"providers", len(cfg.Providers))

	if err := w.Run(sdkworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
