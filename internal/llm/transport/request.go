// Package transport defines the request pipeline the completion gateway
// runs every provider call through: a normalized request/response pair,
// a composable middleware chain, and the core HTTP handler.
package transport

import (
	"net/http"
	"time"
)

// OperationType differentiates pipeline call sites for logging and
// metrics labeling. All operations share the same transport path.
type OperationType string

const (
	// OpNarrativeDraft generates the first-pass narrative document.
	OpNarrativeDraft OperationType = "narrative_draft"

	// OpNarrativeFinal regenerates the narrative with diagram references.
	OpNarrativeFinal OperationType = "narrative_final"

	// OpDiagram generates a diagram source from scratch.
	OpDiagram OperationType = "diagram"

	// OpDiagramRepair asks a provider to fix a broken diagram source.
	OpDiagramRepair OperationType = "diagram_repair"
)

// Request represents a normalized completion request across all providers.
// Contains everything needed for provider-specific HTTP request
// construction, middleware processing, and response correlation.
type Request struct {
	// Operation labels the call site for logs and metrics.
	Operation OperationType `json:"operation"`

	// Provider identifies which completion service to use.
	Provider string `json:"provider"` // "openai"|"anthropic"|"google"

	// Route is the position of the provider record in the fallback
	// chain. Two records may share a Provider name yet point at
	// different endpoints, so routing and budgets key on Route.
	Route int `json:"route"`

	// Model specifies the exact model version to use.
	Model string `json:"model"`

	// Prompt is the user-role content of the completion call.
	Prompt string `json:"prompt"`

	// SystemPrompt provides instructions to the model.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Generation parameters control model behavior.
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// Control fields for resilience and observability.
	Timeout time.Duration `json:"timeout"`
	TraceID string        `json:"trace_id"`
}

// Response represents normalized output from any completion provider.
type Response struct {
	// Content is the generated text.
	Content string `json:"content"`

	// Provider names the adapter that produced the content.
	Provider string `json:"provider"`

	// ProviderRequestIDs enables cross-system correlation.
	ProviderRequestIDs []string `json:"provider_request_ids,omitempty"`

	// Usage tracks resource consumption.
	Usage NormalizedUsage `json:"usage"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`

	// RawBody preserves the original response for audit.
	RawBody []byte `json:"-"`
}

// NormalizedUsage provides consistent usage metrics across all providers.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}
