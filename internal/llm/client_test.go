package llm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/retry"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

func threeProviderConfig() *configuration.Config {
	cfg := configuration.DefaultConfig()
	cfg.Providers = []configuration.ProviderRecord{
		{Name: "anthropic", Model: "claude-sonnet-4-20250514"},
		{Name: "openai", Model: "gpt-4o"},
		{Name: "google", Model: "gemini-1.5-pro"},
	}
	return cfg
}

// scriptedHandler fails providers by name and records call order.
type scriptedHandler struct {
	failures map[string]error
	content  string
	calls    []string
}

func (h *scriptedHandler) Handle(_ context.Context, req *transport.Request) (*transport.Response, error) {
	h.calls = append(h.calls, req.Provider)
	if err, ok := h.failures[req.Provider]; ok {
		return nil, err
	}
	content := h.content
	if content == "" {
		content = "generated text"
	}
	return &transport.Response{Content: content, Provider: req.Provider}, nil
}

func TestGateway_FirstProviderWins(t *testing.T) {
	handler := &scriptedHandler{}
	gw := NewGatewayWithHandler(threeProviderConfig(), handler)

	result, err := gw.Complete(context.Background(), CompletionRequest{
		Operation: transport.OpNarrativeDraft,
		Prompt:    "Describe the system.",
	})
	require.NoError(t, err)

	assert.Equal(t, "anthropic", result.Provider)
	assert.Equal(t, 1, result.ProvidersTried)
	assert.Equal(t, []string{"anthropic"}, handler.calls)
}

func TestGateway_FallsBackInOrder(t *testing.T) {
	handler := &scriptedHandler{
		failures: map[string]error{
			"anthropic": &llmerrors.ProviderError{Provider: "anthropic", Type: llmerrors.ErrorTypeFatal, Message: "boom"},
			"openai":    &llmerrors.ProviderError{Provider: "openai", Type: llmerrors.ErrorTypeTimeout, Message: "deadline"},
		},
	}
	gw := NewGatewayWithHandler(threeProviderConfig(), handler)

	result, err := gw.Complete(context.Background(), CompletionRequest{
		Operation: transport.OpDiagram,
		Prompt:    "Draw it.",
	})
	require.NoError(t, err)

	assert.Equal(t, "google", result.Provider)
	assert.Equal(t, 3, result.ProvidersTried)
	assert.Equal(t, []string{"anthropic", "openai", "google"}, handler.calls)
}

func TestGateway_AllProvidersExhausted(t *testing.T) {
	failure := &llmerrors.ProviderError{Type: llmerrors.ErrorTypeFatal, Message: "boom"}
	handler := &scriptedHandler{
		failures: map[string]error{
			"anthropic": failure,
			"openai":    failure,
			"google":    failure,
		},
	}
	gw := NewGatewayWithHandler(threeProviderConfig(), handler)

	_, err := gw.Complete(context.Background(), CompletionRequest{
		Operation: transport.OpNarrativeDraft,
		Prompt:    "Describe the system.",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrAllProvidersExhausted)
	assert.Len(t, handler.calls, 3)
}

func TestGateway_NoProvidersConfigured(t *testing.T) {
	cfg := configuration.DefaultConfig()
	cfg.Providers = nil
	gw := NewGatewayWithHandler(cfg, &scriptedHandler{})

	_, err := gw.Complete(context.Background(), CompletionRequest{Prompt: "anything"})
	assert.ErrorIs(t, err, llmerrors.ErrNoProviders)
}

func TestGateway_ContextCancellationAbortsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	handler := transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		cancel()
		return nil, &llmerrors.ProviderError{Provider: req.Provider, Type: llmerrors.ErrorTypeFatal, Message: "boom"}
	})
	gw := NewGatewayWithHandler(threeProviderConfig(), handler)

	_, err := gw.Complete(ctx, CompletionRequest{Prompt: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, llmerrors.ErrAllProvidersExhausted)
}

func TestGateway_DefaultsApplied(t *testing.T) {
	var captured *transport.Request
	handler := transport.HandlerFunc(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		captured = req
		return &transport.Response{Content: "ok", Provider: req.Provider}, nil
	})

	cfg := threeProviderConfig()
	cfg.Generation.MaxTokens = 2048
	cfg.Generation.Temperature = 0.3
	cfg.HTTPTimeout = 45 * time.Second
	gw := NewGatewayWithHandler(cfg, handler)

	_, err := gw.Complete(context.Background(), CompletionRequest{
		Prompt:      "anything",
		Temperature: -1,
	})
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, int64(2048), captured.MaxTokens)
	assert.Equal(t, 0.3, captured.Temperature)
	assert.Equal(t, 45*time.Second, captured.Timeout)
}

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGateway_RateLimitedChainSpendsEveryBudget(t *testing.T) {
	callsPerHost := map[string]int{}
	rt := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		callsPerHost[r.URL.Host]++
		body := `{"error":{"message":"rate limit reached","type":"rate_limit_error","code":"rate_limit_exceeded"}}`
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})

	cfg := configuration.DefaultConfig()
	cfg.Providers = []configuration.ProviderRecord{
		{Name: "openai", Model: "gpt-4o", APIKey: "key-one", RetryBudget: 2},
		{Name: "openai", Model: "gpt-4o-mini", APIKey: "key-two", RetryBudget: 3, Endpoint: "http://localhost:8080/v1"},
	}
	cfg.Retry.InitialInterval = time.Millisecond
	cfg.Retry.MaxInterval = 2 * time.Millisecond
	cfg.Retry.UseJitter = false
	cfg.HTTPClient = &http.Client{Transport: rt}

	gw, err := NewGateway(cfg)
	require.NoError(t, err)

	_, err = gw.Complete(context.Background(), CompletionRequest{
		Operation: transport.OpNarrativeDraft,
		Prompt:    "Describe the system.",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrAllProvidersExhausted)

	// Each record spends exactly its own budget against its own
	// endpoint, even though both records name the same provider.
	assert.Equal(t, 2, callsPerHost["api.openai.com"])
	assert.Equal(t, 3, callsPerHost["localhost:8080"])

	reporter, ok := gw.(StatsReporter)
	require.True(t, ok)
	stats := reporter.RetryStats()
	assert.Equal(t, int64(5), stats.TotalAttempts)
	assert.Equal(t, int64(2), stats.FailedRetries)
}

func TestGatewayWithHandler_ZeroRetryStats(t *testing.T) {
	gw := NewGatewayWithHandler(threeProviderConfig(), &scriptedHandler{})

	reporter, ok := gw.(StatsReporter)
	require.True(t, ok)
	assert.Equal(t, retry.RetryStats{}, reporter.RetryStats())
}

func TestNewDefaultHTTPClient(t *testing.T) {
	client := newDefaultHTTPClient(45 * time.Second)

	assert.Equal(t, 45*time.Second, client.Timeout)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, configuration.DefaultMaxIdleConns, tr.MaxIdleConns)
	assert.Equal(t, configuration.DefaultIdleTimeoutSeconds*time.Second, tr.IdleConnTimeout)
	assert.Equal(t, configuration.DefaultTLSTimeoutSeconds*time.Second, tr.TLSHandshakeTimeout)
}

func TestNewGateway_UnknownProviderRejected(t *testing.T) {
	cfg := configuration.DefaultConfig()
	cfg.Providers = []configuration.ProviderRecord{{Name: "cohere", Model: "command-r"}}

	_, err := NewGateway(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, llmerrors.ErrUnknownProvider)
}
