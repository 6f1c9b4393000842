// Package retry implements same-provider retry for the completion
// gateway. Only rate-limited calls are retried; timeouts and fatal
// provider errors surface immediately so the gateway can move to the
// next provider in the fallback chain.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

var (
	// Configuration validation errors.
	errMaxAttemptsInvalid     = errors.New("maxAttempts must be greater than 0")
	errInitialIntervalInvalid = errors.New("initialInterval must be greater than 0")
	errMaxIntervalInvalid     = errors.New("maxInterval must be >= initialInterval")
	errMultiplierInvalid      = errors.New("multiplier must be >= 1.0")

	// Runtime errors.
	errContextCancelledBeforeRetry = errors.New("context cancelled before retry")
	errContextCancelledDuringRetry = errors.New("context cancelled during retry")
	errAllRetriesExhausted         = errors.New("retry budget exhausted")
)

// AfterProvider defines an interface for error types that can provide
// a specific duration to wait before retrying. Providers communicate
// backpressure this way and the client respects it.
type AfterProvider interface {
	// GetRetryAfter returns the recommended duration to wait before the
	// next attempt. If no specific duration is available, it returns zero.
	GetRetryAfter() time.Duration
}

// BudgetFunc resolves the attempt budget for the provider record at a
// chain position. A return of zero means use the configured default.
type BudgetFunc func(route int) int

// Policy implements rate-limit retry with exponential backoff and
// tracks attempt counters across every request it wraps.
type Policy struct {
	config    configuration.RetryConfig
	budgetFor BudgetFunc
	logger    *slog.Logger
	stats     *retryStats
}

// NewPolicy creates a retry policy with the specified configuration.
// Implements exponential backoff with optional full jitter and
// respects provider Retry-After guidance. budgetFor may be nil, in
// which case every provider record gets the configured default budget.
func NewPolicy(cfg configuration.RetryConfig, budgetFor BudgetFunc) (*Policy, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.InitialInterval <= 0 {
		return nil, fmt.Errorf("%w, got %v", errInitialIntervalInvalid, cfg.InitialInterval)
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		return nil, fmt.Errorf("%w, MaxInterval: %v, InitialInterval: %v",
			errMaxIntervalInvalid, cfg.MaxInterval, cfg.InitialInterval)
	}
	if cfg.Multiplier < 1.0 {
		return nil, fmt.Errorf("%w, got %f", errMultiplierInvalid, cfg.Multiplier)
	}

	return &Policy{
		config:    cfg,
		budgetFor: budgetFor,
		logger:    slog.Default().With("component", "retry"),
		stats:     &retryStats{},
	}, nil
}

// NewRetryMiddleware creates retry middleware with the specified
// configuration. Convenience for callers that never read the counters;
// see NewPolicy for the stats-bearing form.
func NewRetryMiddleware(cfg configuration.RetryConfig, budgetFor BudgetFunc) (transport.Middleware, error) {
	p, err := NewPolicy(cfg, budgetFor)
	if err != nil {
		return nil, err
	}
	return p.Middleware(), nil
}

// Middleware returns the transport middleware applying this policy.
func (r *Policy) Middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			// Fail fast if context is already cancelled to avoid wasted attempts.
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", errContextCancelledBeforeRetry, ctx.Err())
			default:
			}

			maxAttempts := r.config.MaxAttempts
			if r.budgetFor != nil {
				if budget := r.budgetFor(req.Route); budget > 0 {
					maxAttempts = budget
				}
			}

			var lastErr error
			for attempt := 1; attempt <= maxAttempts; attempt++ {
				resp, err := next.Handle(ctx, req)
				r.stats.totalAttempts.Add(1)

				if err == nil {
					if attempt > 1 {
						r.stats.successfulRetries.Add(1)
						r.logger.Info("request succeeded after retry",
							"attempt", attempt,
							"provider", req.Provider,
							"model", req.Model)
					} else {
						r.stats.successfulFirstAttempts.Add(1)
					}
					return resp, nil
				}

				// Only rate limits stay with this provider. Timeouts and
				// fatal errors surface so the caller can fall back.
				if !isRetryable(err) {
					r.logger.Debug("non-retryable error",
						"error", err,
						"attempt", attempt,
						"provider", req.Provider)
					return nil, err
				}

				lastErr = err

				if attempt == maxAttempts {
					break
				}

				backoff := r.calculateBackoff(attempt, err)
				r.recordBackoffMetrics(backoff)

				r.logger.Debug("retrying after backoff",
					"attempt", attempt,
					"backoff", backoff,
					"error", err,
					"provider", req.Provider)

				select {
				case <-time.After(backoff):
					// Continue to next attempt.
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", errContextCancelledDuringRetry, ctx.Err())
				}
			}

			r.stats.failedRetries.Add(1)
			return nil, fmt.Errorf("%w after %d attempts: %w",
				errAllRetriesExhausted, maxAttempts, lastErr)
		})
	}
}

// isRetryable reports whether an error should be retried against the
// same provider. Only rate-limit classifications qualify.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *llmerrors.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var providerErr *llmerrors.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.IsRetryable()
	}

	var genErr *llmerrors.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable
	}

	return false
}
