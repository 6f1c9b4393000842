package errors

import (
	"context"
	"errors"
	"strings"
)

// Classify transforms completion errors into GenerationError with retry
// guidance. Examines error types, sentinels, and message patterns to
// determine whether the gateway should back off and retry the same
// provider (rate limit) or abandon it (timeout, fatal).
func Classify(err error) *GenerationError {
	if err == nil {
		return nil
	}

	if genErr := classifyTypedErrors(err); genErr != nil {
		return genErr
	}

	if genErr := classifySentinelErrors(err); genErr != nil {
		return genErr
	}

	return classifyStringPatternErrors(err)
}

// classifyTypedErrors handles strongly-typed error classification.
func classifyTypedErrors(err error) *GenerationError {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return &GenerationError{
			Type:      providerErr.Type,
			Message:   providerErr.Message,
			Code:      providerErr.Code,
			Retryable: providerErr.IsRetryable(),
			Details: map[string]any{
				"provider":    providerErr.Provider,
				"status_code": providerErr.StatusCode,
			},
			Cause: err,
		}
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &GenerationError{
			Type:      ErrorTypeRateLimit,
			Message:   rateLimitErr.Error(),
			Code:      "RATE_LIMIT",
			Retryable: true,
			Details: map[string]any{
				"provider":    rateLimitErr.Provider,
				"retry_after": rateLimitErr.RetryAfter,
			},
			Cause: err,
		}
	}

	return nil
}

// classifySentinelErrors handles sentinel error classification.
func classifySentinelErrors(err error) *GenerationError {
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return &GenerationError{
			Type:      ErrorTypeRateLimit,
			Message:   err.Error(),
			Code:      "RATE_LIMIT",
			Retryable: true,
			Cause:     err,
		}
	case errors.Is(err, ErrEmptyCompletion):
		return &GenerationError{
			Type:      ErrorTypeFatal,
			Message:   err.Error(),
			Code:      "EMPTY_COMPLETION",
			Retryable: false,
			Cause:     err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &GenerationError{
			Type:      ErrorTypeTimeout,
			Message:   "request deadline exceeded",
			Code:      "TIMEOUT",
			Retryable: false,
			Cause:     err,
		}
	case errors.Is(err, ErrAllProvidersExhausted):
		return &GenerationError{
			Type:      ErrorTypeFatal,
			Message:   err.Error(),
			Code:      "ALL_PROVIDERS_EXHAUSTED",
			Retryable: false,
			Cause:     err,
		}
	}

	return nil
}

// classifyStringPatternErrors handles untyped error classification.
// Performs message pattern matching so provider SDK errors and transport
// failures still land in the right bucket.
func classifyStringPatternErrors(err error) *GenerationError {
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		return &GenerationError{
			Type:      ErrorTypeRateLimit,
			Message:   "rate limit exceeded",
			Code:      "RATE_LIMIT",
			Retryable: true,
			Details:   map[string]any{"original_error": err.Error()},
			Cause:     err,
		}
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		return &GenerationError{
			Type:      ErrorTypeTimeout,
			Message:   "request timeout",
			Code:      "TIMEOUT",
			Retryable: false,
			Details:   map[string]any{"original_error": err.Error()},
			Cause:     err,
		}
	default:
		return &GenerationError{
			Type:      ErrorTypeFatal,
			Message:   "provider call failed",
			Code:      "PROVIDER_FATAL",
			Retryable: false,
			Details:   map[string]any{"original_error": err.Error()},
			Cause:     err,
		}
	}
}
