package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
)

// calculateBackoff computes the retry delay using exponential backoff
// with optional full jitter. Provider Retry-After guidance takes
// precedence over the computed interval.
func (r *Policy) calculateBackoff(attempt int, err error) time.Duration {
	if retryAfter := extractRetryAfter(err); retryAfter > 0 {
		return retryAfter
	}
	return ExponentialBackoff(attempt, r.config)
}

// extractRetryAfter determines provider-specified retry delays from
// error responses. Supports the AfterProvider interface plus the typed
// rate-limit and provider errors.
func extractRetryAfter(err error) time.Duration {
	var provider AfterProvider
	if errors.As(err, &provider) {
		return provider.GetRetryAfter()
	}

	var rateLimitErr *llmerrors.RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		return time.Duration(rateLimitErr.RetryAfter) * time.Second
	}

	var providerErr *llmerrors.ProviderError
	if errors.As(err, &providerErr) && providerErr.RetryAfter > 0 {
		return time.Duration(providerErr.RetryAfter) * time.Second
	}

	return 0
}

// ExponentialBackoff calculates retry delays using exponential backoff
// with optional full jitter. The delay doubles per attempt (or grows by
// the configured multiplier) and never exceeds MaxInterval. Thread-safe
// using math/rand/v2. Returns zero for non-positive attempt numbers.
func ExponentialBackoff(attempt int, config configuration.RetryConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := config.InitialInterval
	if backoff <= 0 {
		backoff = time.Millisecond // Minimum to prevent hot looping.
	}

	for i := 1; i < attempt; i++ {
		multiplier := config.Multiplier
		if multiplier < 1.0 {
			multiplier = 1.0
		}
		backoff = time.Duration(float64(backoff) * multiplier)
		if backoff > config.MaxInterval {
			backoff = config.MaxInterval
			break
		}
	}

	if config.UseJitter {
		// Full jitter: random between 0 and the computed backoff.
		jitterMs := rand.Int63n(backoff.Milliseconds() + 1) // #nosec G404 -- non-cryptographic jitter is appropriate here
		return time.Duration(jitterMs) * time.Millisecond
	}

	return backoff
}
