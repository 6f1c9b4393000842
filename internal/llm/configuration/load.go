package configuration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, layers it over DefaultConfig, resolves
// API keys from the environment, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	cfg.ResolveAPIKeys()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

// applyDefaults backfills zero values that YAML overrides may have
// clobbered, so a partial config file never disables a safety bound.
func applyDefaults(cfg *Config) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultRetryBudget
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry.InitialInterval = DefaultInitialInterval
	}
	if cfg.Retry.MaxInterval <= 0 {
		cfg.Retry.MaxInterval = DefaultMaxInterval
	}
	if cfg.Retry.Multiplier < 1.0 {
		cfg.Retry.Multiplier = DefaultMultiplier
	}
	if cfg.Generation.SignificanceThreshold <= 0 {
		cfg.Generation.SignificanceThreshold = DefaultSignificanceThreshold
	}
	if cfg.Generation.MaxRepairAttempts <= 0 {
		cfg.Generation.MaxRepairAttempts = DefaultMaxRepairAttempts
	}
	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = DefaultMaxTokens
	}
	if cfg.Checker.Command == "" {
		cfg.Checker.Command = DefaultCheckerCommand
	}
	if cfg.Checker.Timeout <= 0 {
		cfg.Checker.Timeout = DefaultCheckerTimeout
	}
	if cfg.Renderer.Command == "" {
		cfg.Renderer.Command = DefaultRendererCommand
	}
	if cfg.Renderer.FormatFlag == "" {
		cfg.Renderer.FormatFlag = DefaultFormatFlag
	}
	if cfg.Renderer.Timeout <= 0 {
		cfg.Renderer.Timeout = DefaultRendererTimeout
	}
	if cfg.Renderer.PollInterval <= 0 {
		cfg.Renderer.PollInterval = DefaultPollInterval
	}
	if cfg.Temporal.HostPort == "" {
		cfg.Temporal.HostPort = DefaultTemporalHostPort
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = DefaultNamespace
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = DefaultTaskQueue
	}
}
