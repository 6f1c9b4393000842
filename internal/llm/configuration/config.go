// Package configuration holds the pipeline's configuration surface.
// Retry counts, backoff parameters, repair budgets, and significance
// thresholds are configurable defaults rather than fixed constants.
package configuration

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Configuration validation errors.
var (
	ErrNoProviderName = errors.New("provider record missing name")
	ErrNoOutputDir    = errors.New("output directory not configured")
)

// Config holds comprehensive configuration for the generation pipeline.
type Config struct {
	// HTTP client configuration shared by all provider adapters.
	HTTPTimeout time.Duration `yaml:"http_timeout" json:"http_timeout"`
	HTTPClient  *http.Client  `yaml:"-" json:"-"`

	// Providers is the ordered fallback chain. Order is priority order
	// and is fixed for the process lifetime.
	Providers []ProviderRecord `yaml:"providers" json:"providers"`

	// Retry holds the per-provider retry defaults; individual records
	// may override the budget.
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Generation controls gating, prompts, and the repair budget.
	Generation GenerationConfig `yaml:"generation" json:"generation"`

	// Checker configures the external diagram syntax checker.
	Checker CheckerConfig `yaml:"checker" json:"checker"`

	// Renderer configures the optional diagram image renderer.
	Renderer RendererConfig `yaml:"renderer" json:"renderer"`

	// Output configures the artifact writer.
	Output OutputConfig `yaml:"output" json:"output"`

	// Knowledge configures the optional entity store collaborator.
	Knowledge KnowledgeConfig `yaml:"knowledge" json:"knowledge"`

	// Temporal configures the worker deployment surface.
	Temporal TemporalConfig `yaml:"temporal" json:"temporal"`
}

// ProviderRecord describes one completion provider in the fallback chain.
// Records are read-only after startup; no mutable shared state crosses
// concurrent calls.
type ProviderRecord struct {
	// Name selects the adapter: "openai", "anthropic", or "google".
	Name string `yaml:"name" json:"name"`

	// Model is the provider-specific model identifier.
	Model string `yaml:"model" json:"model"`

	// Endpoint overrides the provider's default API base URL. This is
	// how OpenAI-compatible custom gateways are reached.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// APIKey is the resolved credential. Sensitive, never serialized.
	APIKey string `yaml:"-" json:"-"`

	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	// RetryBudget caps attempts against this provider per gateway call.
	// Zero means use the Retry config default.
	RetryBudget int `yaml:"retry_budget" json:"retry_budget"`

	// Timeout bounds a single completion call. Zero means HTTPTimeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" json:"headers,omitempty"`
}

// RetryConfig controls same-provider retry behavior for rate-limited calls.
// Backoff follows min(base * 2^attempt, cap) with optional full jitter.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" json:"max_attempts"`         // Per-provider attempt budget
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval"` // Backoff base
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval"`         // Backoff cap
	Multiplier      float64       `yaml:"multiplier" json:"multiplier"`             // Exponential multiplier
	UseJitter       bool          `yaml:"use_jitter" json:"use_jitter"`             // Full jitter randomization
}

// GenerationConfig controls gating and generation parameters.
type GenerationConfig struct {
	// SignificanceThreshold gates jobs; patterns below it never trigger
	// provider calls.
	SignificanceThreshold int `yaml:"significance_threshold" json:"significance_threshold"`

	// MaxRepairAttempts bounds provider-assisted diagram repair cycles.
	MaxRepairAttempts int `yaml:"max_repair_attempts" json:"max_repair_attempts"`

	// MaxTokens and Temperature are the model parameters for narrative
	// and diagram generation calls.
	MaxTokens   int64   `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// CheckerConfig configures the external syntax checker invocation.
type CheckerConfig struct {
	// Command is the checker binary (invoked as: Command -checkonly <file>).
	Command string `yaml:"command" json:"command"`

	// Timeout bounds one checker subprocess. Checker runs scale with
	// input size, so this ceiling is minutes, not seconds.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// RendererConfig configures the optional image renderer invocation.
type RendererConfig struct {
	// Enabled turns post-validation rendering on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Command is the renderer binary (invoked as: Command FormatFlag <file> -o <dir>).
	Command string `yaml:"command" json:"command"`

	// FormatFlag selects the output format (e.g. "-tpng").
	FormatFlag string `yaml:"format_flag" json:"format_flag"`

	// Timeout bounds one renderer subprocess.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// PollInterval is the delay between checks for the expected output
	// file; the renderer's exit code alone is not trusted.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// OutputConfig configures the artifact writer.
type OutputConfig struct {
	// Dir is the root output directory. The narrative lands at
	// <Dir>/<EntityName>.md, sources under <Dir>/diagrams, images under
	// <Dir>/images.
	Dir string `yaml:"dir" json:"dir"`

	// HTMLPreview additionally renders the narrative to HTML alongside
	// the markdown document.
	HTMLPreview bool `yaml:"html_preview" json:"html_preview"`
}

// KnowledgeConfig configures the Postgres entity store collaborator.
type KnowledgeConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	DatabaseURL string `yaml:"database_url" json:"database_url"`
}

// TemporalConfig configures the worker deployment surface.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" json:"host_port"`
	Namespace string `yaml:"namespace" json:"namespace"`
	TaskQueue string `yaml:"task_queue" json:"task_queue"`
}

// Validate checks structural configuration constraints. An empty provider
// list is legal here; the gateway reports exhaustion at call time.
func (c *Config) Validate() error {
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("%w: index %d", ErrNoProviderName, i)
		}
	}
	if c.Output.Dir == "" {
		return ErrNoOutputDir
	}
	return nil
}

// ResolveAPIKeys fills each record's APIKey from its APIKeyEnv variable.
// Records whose variable is unset keep an empty key; adapters will fail
// those calls, which the gateway treats as fatal for that provider.
func (c *Config) ResolveAPIKeys() {
	for i := range c.Providers {
		if c.Providers[i].APIKey == "" && c.Providers[i].APIKeyEnv != "" {
			c.Providers[i].APIKey = os.Getenv(c.Providers[i].APIKeyEnv)
		}
	}
}
