package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// AnthropicAdapter implements ProviderAdapter for Anthropic Claude models.
// It handles Anthropic's messages API format with separate system prompts,
// request/response transformation, and Anthropic-specific headers.
type AnthropicAdapter struct {
	config configuration.ProviderRecord
}

// NewAnthropicAdapter creates an Anthropic provider adapter with default
// endpoint. If no endpoint is configured, it defaults to Anthropic's
// production API.
func NewAnthropicAdapter(cfg configuration.ProviderRecord) *AnthropicAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com/v1"
	}
	return &AnthropicAdapter{config: cfg}
}

// Name returns the provider name.
func (a *AnthropicAdapter) Name() string {
	return ProviderAnthropic
}

// Build constructs an Anthropic API request from a normalized completion
// request. It builds the messages body with Anthropic's format including
// separate system prompts, proper authentication, and API versioning.
func (a *AnthropicAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/messages", a.config.Endpoint)

	messages := []map[string]any{
		{
			"role":    "user",
			"content": req.Prompt,
		},
	}

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	// Add system prompt separately (Anthropic format).
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers (Anthropic specific).
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts normalized data from an Anthropic API response.
// It handles Anthropic's content block format and extracts usage metrics.
func (a *AnthropicAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAnthropicError(httpResp.StatusCode, body)
	}

	var resp struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model      string `json:"model"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var content string
	if len(resp.Content) > 0 {
		content = resp.Content[0].Text
	}

	requestIDs := []string{}
	if reqID := httpResp.Header.Get("anthropic-request-id"); reqID != "" {
		requestIDs = append(requestIDs, reqID)
	}

	return &transport.Response{
		Content:            content,
		ProviderRequestIDs: requestIDs,
		Usage: transport.NormalizedUsage{
			PromptTokens:     int64(resp.Usage.InputTokens),
			CompletionTokens: int64(resp.Usage.OutputTokens),
			TotalTokens:      int64(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
		Headers: httpResp.Header,
		RawBody: body,
	}, nil
}

// parseAnthropicError converts Anthropic error responses to ProviderError.
// Extracts error details from Anthropic's JSON error format.
func parseAnthropicError(statusCode int, body []byte) error {
	var errResp struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &llmerrors.ProviderError{
			Provider:   ProviderAnthropic,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Type,
			Type:       classifyErrorType(statusCode, errResp.Error.Type),
		}
	}

	return &llmerrors.ProviderError{
		Provider:   ProviderAnthropic,
		StatusCode: statusCode,
		Message:    string(body),
		Type:       classifyErrorType(statusCode, ""),
	}
}
