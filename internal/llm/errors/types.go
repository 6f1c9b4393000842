// Package errors defines the failure taxonomy for completion provider calls.
// Classification drives the gateway's retry-versus-fallback decision: rate
// limits are retried on the same provider with backoff, while fatal errors
// and timeouts abandon the provider and fall through to the next one.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType categorizes completion failures for retry classification.
type ErrorType string

const (
	// ErrorTypeRateLimit indicates the provider throttled the call.
	// Recovered locally: backoff, then retry the same provider.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeTimeout indicates the call exceeded its deadline.
	// The provider is abandoned immediately; fallback proceeds.
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeFatal indicates a non-recoverable provider failure
	// (auth, bad request, server error, blank completion). The provider
	// is abandoned immediately; fallback proceeds.
	ErrorTypeFatal ErrorType = "provider_fatal"

	// ErrorTypeUnknown indicates an unclassified error, treated as fatal.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common completion errors for consistent error handling.
var (
	// ErrAllProvidersExhausted indicates every configured provider failed.
	// Callers must treat this as job-fatal.
	ErrAllProvidersExhausted = errors.New("all completion providers exhausted")

	// ErrNoProviders indicates the provider registry is empty.
	ErrNoProviders = errors.New("no completion providers configured")

	// ErrEmptyCompletion indicates a provider returned a blank success.
	// Treated as fatal for that provider to protect downstream parsers.
	ErrEmptyCompletion = errors.New("provider returned empty completion")

	// ErrRateLimitExceeded indicates a rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUnknownProvider indicates an unknown or unsupported provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidResponse indicates the provider returned an invalid response.
	ErrInvalidResponse = errors.New("invalid provider response")
)

// ProviderError captures structured error responses from completion providers.
// Includes HTTP status codes, provider-specific error codes, and retry timing
// to enable appropriate retry behavior and error diagnosis.
type ProviderError struct {
	Provider   string    `json:"provider"`    // Provider name
	StatusCode int       `json:"status_code"` // HTTP status code
	Message    string    `json:"message"`     // Error message
	Code       string    `json:"code"`        // Provider error code
	Type       ErrorType `json:"type"`        // Classified error type
	RetryAfter int       `json:"retry_after"` // Retry-After header value in seconds
}

// Error returns a formatted provider error with status code context.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether the error warrants another attempt on the
// same provider. Only rate limits qualify; timeouts and fatal errors
// trigger immediate fallback instead.
func (e *ProviderError) IsRetryable() bool {
	return e.Type == ErrorTypeRateLimit
}

// GetRetryAfter implements the retry.AfterProvider interface.
func (e *ProviderError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// RateLimitError provides detailed rate limit context for backoff calculation.
type RateLimitError struct {
	Provider   string `json:"provider"`
	RetryAfter int    `json:"retry_after"` // Seconds to wait before retry
	Limit      int    `json:"limit"`       // Rate limit
	Remaining  int    `json:"remaining"`   // Remaining requests
}

// Error returns a formatted rate limit error with retry guidance.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %d seconds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Provider)
}

// GetRetryAfter implements the retry.AfterProvider interface.
func (e *RateLimitError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter) * time.Second
	}
	return 0
}

// GenerationError provides comprehensive error context for pipeline stages.
// Includes error classification for retry decisions, human-readable messages,
// provider-specific error codes, and structured details for observability.
type GenerationError struct {
	Type      ErrorType      `json:"type"`      // Error classification
	Message   string         `json:"message"`   // Human-readable message
	Code      string         `json:"code"`      // Provider-specific error code
	Retryable bool           `json:"retryable"` // Whether to retry the same provider
	Details   map[string]any `json:"details"`   // Additional context
	Cause     error          `json:"-"`         // Underlying error
}

// Error returns a formatted error string with type and code context.
func (e *GenerationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *GenerationError) Unwrap() error { return e.Cause }

// ShouldRetry returns the explicit retry recommendation.
func (e *GenerationError) ShouldRetry() bool { return e.Retryable }

// IsRetryableError reports whether an error warrants another attempt on
// the same provider. Examines typed errors, sentinels, and HTTP status
// codes to provide consistent retry decisions across the gateway.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.ShouldRetry()
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}

	if errors.Is(err, ErrRateLimitExceeded) {
		return true
	}

	type statusCoder interface {
		StatusCode() int
	}
	if sc, ok := err.(statusCoder); ok {
		return sc.StatusCode() == http.StatusTooManyRequests
	}

	// Conservative default - unknown errors abandon the provider.
	return false
}

// IsRateLimitError identifies rate limiting errors for backoff handling.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Type == ErrorTypeRateLimit
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type == ErrorTypeRateLimit
	}

	return errors.Is(err, ErrRateLimitExceeded)
}

// GetRetryAfter extracts the retry-after duration in seconds from rate
// limit errors, or 0 if no specific guidance is available.
func GetRetryAfter(err error) int {
	if err == nil {
		return 0
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.RetryAfter
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.RetryAfter
	}

	return 0
}
