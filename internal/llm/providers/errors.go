package providers

import (
	"net/http"
	"strings"

	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
)

// classifyErrorType determines ErrorType from HTTP status and provider
// error codes. Only rate limits are retryable against the same
// provider; timeouts and everything else abandon it.
func classifyErrorType(statusCode int, errorCode string) llmerrors.ErrorType {
	// Check error code first for specific classifications.
	lowerCode := strings.ToLower(errorCode)
	if strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit") {
		return llmerrors.ErrorTypeRateLimit
	}
	if strings.Contains(lowerCode, "timeout") {
		return llmerrors.ErrorTypeTimeout
	}

	// Fall back to status code classification.
	switch statusCode {
	case http.StatusTooManyRequests:
		return llmerrors.ErrorTypeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return llmerrors.ErrorTypeTimeout
	default:
		return llmerrors.ErrorTypeFatal
	}
}
