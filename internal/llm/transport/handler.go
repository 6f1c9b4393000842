package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
)

// Router selects the appropriate provider adapter for request routing.
// Adapters are keyed by chain position rather than provider name so
// that duplicate records of the same provider stay distinct.
// Implemented by the providers package.
type Router interface {
	Pick(route int) (ProviderAdapter, error)
}

// ProviderAdapter abstracts provider-specific HTTP communication patterns.
// Each provider (OpenAI, Anthropic, Google) implements this interface to
// handle its API format, authentication scheme, and response structure.
type ProviderAdapter interface {
	// Build constructs a provider-specific HTTP request from the
	// normalized completion request.
	Build(ctx context.Context, req *Request) (*http.Request, error)

	// Parse extracts normalized data from the provider's HTTP response.
	Parse(httpResp *http.Response) (*Response, error)

	// Name returns the canonical provider identifier.
	Name() string
}

// Handler processes completion requests through a composable middleware
// pipeline. Core abstraction enabling retry, logging, and other
// cross-cutting concerns without touching the HTTP core.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
// Applied in reverse order with the last middleware closest to the core.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler.
// Middleware executes in the order provided with the first middleware
// outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that makes actual HTTP calls.
func NewHTTPHandler(client *http.Client, router Router) Handler {
	return &httpHandler{client: client, router: router}
}

// httpHandler is the core handler that executes provider HTTP requests.
type httpHandler struct {
	client *http.Client
	router Router
}

// Handle implements Handler by making an HTTP request to the provider
// record the request routes to. A success with blank content is surfaced as
// ErrEmptyCompletion so the gateway treats the provider as fatal.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	adapter, err := h.router.Pick(req.Route)
	if err != nil {
		return nil, fmt.Errorf("failed to select provider: %w", err)
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	resp.Provider = adapter.Name()
	resp.Usage.LatencyMs = latency.Milliseconds()

	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: provider %s", llmerrors.ErrEmptyCompletion, adapter.Name())
	}

	return resp, nil
}
