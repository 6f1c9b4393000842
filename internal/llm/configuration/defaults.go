package configuration

import "time"

// HTTP and connection constants.
const (
	DefaultMaxIdleConns       = 100
	DefaultIdleTimeoutSeconds = 90
	DefaultTLSTimeoutSeconds  = 10
	DefaultHTTPTimeout        = 30 * time.Second
)

// Retry constants. Backoff follows min(base * 2^attempt, cap).
const (
	DefaultRetryBudget     = 3
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 30 * time.Second
	DefaultMultiplier      = 2.0
)

// Generation constants.
const (
	DefaultSignificanceThreshold = 3
	DefaultMaxRepairAttempts     = 2
	DefaultMaxTokens             = 4096
	DefaultTemperature           = 0.3
)

// External tool constants. Subprocess ceilings are minutes-scale to
// accommodate large diagram inputs.
const (
	DefaultCheckerCommand  = "plantuml"
	DefaultCheckerTimeout  = 2 * time.Minute
	DefaultRendererCommand = "plantuml"
	DefaultFormatFlag      = "-tpng"
	DefaultRendererTimeout = 3 * time.Minute
	DefaultPollInterval    = 200 * time.Millisecond
)

// Temporal worker constants.
const (
	DefaultTemporalHostPort = "localhost:7233"
	DefaultNamespace        = "default"
	DefaultTaskQueue        = "scribe-generation"
)

// DefaultConfig returns production-ready configuration with sensible
// defaults. Providers must still be supplied by the caller or loaded
// from a config file.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeout,
		Retry: RetryConfig{
			MaxAttempts:     DefaultRetryBudget,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Multiplier:      DefaultMultiplier,
			UseJitter:       true,
		},
		Generation: GenerationConfig{
			SignificanceThreshold: DefaultSignificanceThreshold,
			MaxRepairAttempts:     DefaultMaxRepairAttempts,
			MaxTokens:             DefaultMaxTokens,
			Temperature:           DefaultTemperature,
		},
		Checker: CheckerConfig{
			Command: DefaultCheckerCommand,
			Timeout: DefaultCheckerTimeout,
		},
		Renderer: RendererConfig{
			Enabled:      true,
			Command:      DefaultRendererCommand,
			FormatFlag:   DefaultFormatFlag,
			Timeout:      DefaultRendererTimeout,
			PollInterval: DefaultPollInterval,
		},
		Output: OutputConfig{
			Dir: "docs/generated",
		},
		Temporal: TemporalConfig{
			HostPort:  DefaultTemporalHostPort,
			Namespace: DefaultNamespace,
			TaskQueue: DefaultTaskQueue,
		},
	}
}
