package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// Metrics provides observability data collection for completion calls.
// Supports counters, histograms, and gauges with tag-based
// dimensionality for monitoring and alerting.
type Metrics interface {
	IncrementCounter(name string, tags map[string]string, value float64)
	RecordHistogram(name string, tags map[string]string, value float64)
	SetGauge(name string, tags map[string]string, value float64)
}

// NoOpMetrics satisfies the Metrics interface without collecting
// anything. Used in tests and when no collector is wired.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a no-op metrics collector.
func NewNoOpMetrics() *NoOpMetrics { return &NoOpMetrics{} }

func (n *NoOpMetrics) IncrementCounter(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) RecordHistogram(_ string, _ map[string]string, _ float64) {}

func (n *NoOpMetrics) SetGauge(_ string, _ map[string]string, _ float64) {}

// LoggingMiddleware provides structured logging and metrics for the
// completion request lifecycle.
type LoggingMiddleware struct {
	logger  *slog.Logger
	metrics Metrics
}

// NewLoggingMiddleware creates observability middleware with structured
// logging. A nil logger falls back to slog.Default; a nil metrics
// collector falls back to NoOpMetrics.
func NewLoggingMiddleware(logger *slog.Logger, metrics Metrics) transport.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	lm := &LoggingMiddleware{logger: logger, metrics: metrics}
	return lm.Middleware
}

// Middleware wraps completion handlers with request lifecycle logging,
// latency measurement, and error classification.
func (m *LoggingMiddleware) Middleware(next transport.Handler) transport.Handler {
	return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		requestID := req.TraceID
		if requestID == "" {
			requestID = uuid.New().String()
		}

		baseTags := map[string]string{
			"provider":  req.Provider,
			"model":     req.Model,
			"operation": string(req.Operation),
		}

		m.logger.Info("completion request started",
			"request_id", requestID,
			"provider", req.Provider,
			"model", req.Model,
			"operation", req.Operation,
			"max_tokens", req.MaxTokens,
			"temperature", req.Temperature,
			"prompt_length", len(req.Prompt),
			"timeout_seconds", req.Timeout.Seconds())

		m.metrics.IncrementCounter("llm.requests.total", baseTags, 1)

		start := time.Now()
		resp, err := next.Handle(ctx, req)
		duration := time.Since(start)

		m.metrics.RecordHistogram("llm.request.duration_ms", baseTags, float64(duration.Milliseconds()))

		if err != nil {
			errorType := string(llmerrors.ErrorTypeUnknown)
			if genErr := llmerrors.Classify(err); genErr != nil {
				errorType = string(genErr.Type)
			}

			errorTags := copyTags(baseTags)
			errorTags["error_type"] = errorType
			m.metrics.IncrementCounter("llm.requests.errors", errorTags, 1)

			m.logger.Error("completion request failed",
				"request_id", requestID,
				"provider", req.Provider,
				"model", req.Model,
				"operation", req.Operation,
				"duration_ms", duration.Milliseconds(),
				"error_type", errorType,
				"error", err)
			return resp, err
		}

		m.metrics.IncrementCounter("llm.requests.success", baseTags, 1)
		m.metrics.RecordHistogram("llm.tokens.total", baseTags, float64(resp.Usage.TotalTokens))

		m.logger.Info("completion request completed",
			"request_id", requestID,
			"provider", resp.Provider,
			"model", req.Model,
			"operation", req.Operation,
			"duration_ms", duration.Milliseconds(),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"content_length", len(resp.Content))

		return resp, nil
	})
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	return out
}
