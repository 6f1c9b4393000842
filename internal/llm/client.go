// Package llm provides a resilient completion gateway over multiple
// LLM providers. A single Complete call walks an ordered fallback chain
// of providers, retrying rate limits against the same provider with
// exponential backoff and abandoning a provider on timeout or fatal
// error. The first non-blank completion wins.
//
// Architecture:
//   - Provider-agnostic adapters for OpenAI, Anthropic, and Google
//   - Middleware chain for retry and observability
//   - Request/response only (no streaming in this implementation)
//   - Empty successful completions are treated as provider failures
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/providers"
	"github.com/patternscribe/scribe/internal/llm/retry"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// CompletionRequest describes one logical completion the gateway should
// satisfy from any provider in its fallback chain.
type CompletionRequest struct {
	// Operation labels the call site for logs and metrics.
	Operation transport.OperationType

	// Prompt is the user-role content of the completion call.
	Prompt string

	// SystemPrompt provides instructions to the model.
	SystemPrompt string

	// MaxTokens caps the completion length. Zero means the configured
	// default.
	MaxTokens int64

	// Temperature controls sampling. Negative means the configured
	// default.
	Temperature float64

	// TraceID correlates this call across log lines and events.
	TraceID string
}

// CompletionResult carries the winning completion and its provenance.
type CompletionResult struct {
	// Content is the generated text, never blank.
	Content string

	// Provider names the provider that produced the content.
	Provider string

	// Model is the model identifier used.
	Model string

	// ProvidersTried counts how many providers were consulted before
	// one succeeded.
	ProvidersTried int

	// Usage aggregates token consumption of the winning call.
	Usage transport.NormalizedUsage
}

// Gateway is the provider-fallback completion client. Implementations
// are safe for concurrent use; each call carries its own state.
type Gateway interface {
	// Complete walks the provider chain in configured order and returns
	// the first usable completion. Returns ErrNoProviders when the chain
	// is empty and ErrAllProvidersExhausted when every provider failed.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// StatsReporter is satisfied by gateways that expose retry counters.
// The gateway NewGateway returns implements it.
type StatsReporter interface {
	// RetryStats snapshots the retry middleware counters accumulated
	// across all Complete calls.
	RetryStats() retry.RetryStats
}

// gateway implements Gateway with a per-provider middleware pipeline.
type gateway struct {
	config      *configuration.Config
	handler     transport.Handler
	retryPolicy *retry.Policy
	logger      *slog.Logger
}

// NewGateway creates a completion gateway from configuration. The
// handler pipeline is logging over retry over the HTTP core; retry
// stays within one provider while the gateway's own loop moves across
// providers.
func NewGateway(cfg *configuration.Config) (Gateway, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newDefaultHTTPClient(cfg.HTTPTimeout)
	}

	coreHandler := transport.NewHTTPHandler(httpClient, router)

	budgetFor := func(route int) int {
		if route < 0 || route >= len(cfg.Providers) {
			return 0
		}
		return cfg.Providers[route].RetryBudget
	}

	retryPolicy, err := retry.NewPolicy(cfg.Retry, budgetFor)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retry middleware: %w", err)
	}

	handler := transport.Chain(coreHandler,
		NewLoggingMiddleware(slog.Default(), nil),
		retryPolicy.Middleware(),
	)

	return &gateway{
		config:      cfg,
		handler:     handler,
		retryPolicy: retryPolicy,
		logger:      slog.Default().With("component", "gateway"),
	}, nil
}

// newDefaultHTTPClient builds the HTTP client used when the caller
// supplies none, with connection pooling sized per the package defaults.
func newDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        configuration.DefaultMaxIdleConns,
			IdleConnTimeout:     configuration.DefaultIdleTimeoutSeconds * time.Second,
			TLSHandshakeTimeout: configuration.DefaultTLSTimeoutSeconds * time.Second,
		},
	}
}

// NewGatewayWithHandler creates a gateway over a caller-supplied
// handler. Used by tests to substitute the HTTP core.
func NewGatewayWithHandler(cfg *configuration.Config, handler transport.Handler) Gateway {
	return &gateway{
		config:  cfg,
		handler: handler,
		logger:  slog.Default().With("component", "gateway"),
	}
}

// RetryStats implements StatsReporter. Gateways built over a
// caller-supplied handler carry no retry policy and report zero
// counters.
func (g *gateway) RetryStats() retry.RetryStats {
	if g.retryPolicy == nil {
		return retry.RetryStats{}
	}
	return g.retryPolicy.Stats()
}

// Complete implements Gateway. Providers are consulted strictly in
// configured order; a provider is abandoned on its first timeout or
// fatal error and after its retry budget is spent on rate limits.
func (g *gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if len(g.config.Providers) == 0 {
		return nil, llmerrors.ErrNoProviders
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.config.Generation.MaxTokens
	}
	temperature := req.Temperature
	if temperature < 0 {
		temperature = g.config.Generation.Temperature
	}

	var lastErr error

	for i, rec := range g.config.Providers {
		timeout := rec.Timeout
		if timeout <= 0 {
			timeout = g.config.HTTPTimeout
		}

		treq := &transport.Request{
			Operation:    req.Operation,
			Provider:     rec.Name,
			Route:        i,
			Model:        rec.Model,
			Prompt:       req.Prompt,
			SystemPrompt: req.SystemPrompt,
			MaxTokens:    maxTokens,
			Temperature:  temperature,
			Timeout:      timeout,
			TraceID:      req.TraceID,
		}

		resp, err := g.handler.Handle(ctx, treq)
		if err == nil {
			return &CompletionResult{
				Content:        resp.Content,
				Provider:       resp.Provider,
				Model:          rec.Model,
				ProvidersTried: i + 1,
				Usage:          resp.Usage,
			}, nil
		}

		// Context cancellation aborts the whole chain, not just this
		// provider.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("completion aborted: %w", ctx.Err())
		}

		genErr := llmerrors.Classify(err)
		g.logger.Warn("provider failed, falling back",
			"provider", rec.Name,
			"model", rec.Model,
			"operation", req.Operation,
			"error_type", genErr.Type,
			"error", err)

		lastErr = err
	}

	return nil, fmt.Errorf("%w: last error: %w", llmerrors.ErrAllProvidersExhausted, lastErr)
}
