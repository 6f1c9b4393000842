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

// GoogleAdapter implements ProviderAdapter for Google Gemini models.
// It handles Google's generateContent API format with API key
// authentication, system instructions, and Google-specific response
// structures.
type GoogleAdapter struct {
	config configuration.ProviderRecord
}

// NewGoogleAdapter creates a Google provider adapter with default endpoint.
// If no endpoint is configured, it defaults to Google's generative
// language API.
func NewGoogleAdapter(cfg configuration.ProviderRecord) *GoogleAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GoogleAdapter{config: cfg}
}

// Name returns the provider name.
func (a *GoogleAdapter) Name() string {
	return ProviderGoogle
}

// Build constructs a Google Gemini API request from a normalized
// completion request. It builds the generateContent body with API key
// authentication, system instructions, and Google-specific parameter
// formatting.
func (a *GoogleAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.config.Endpoint, req.Model)

	// Add API key to URL.
	endpoint = fmt.Sprintf("%s?key=%s", endpoint, a.config.APIKey)

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": req.Prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     req.Temperature,
			"maxOutputTokens": req.MaxTokens,
		},
	}

	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": req.SystemPrompt},
			},
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// Parse extracts normalized data from a Google Gemini API response.
// It handles Google's candidates format and extracts usage metadata.
func (a *GoogleAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, parseGoogleError(httpResp.StatusCode, body)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var content string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		content = resp.Candidates[0].Content.Parts[0].Text
	}

	requestIDs := []string{}
	if reqID := httpResp.Header.Get("x-goog-request-id"); reqID != "" {
		requestIDs = append(requestIDs, reqID)
	} else if reqID := httpResp.Header.Get("x-request-id"); reqID != "" {
		requestIDs = append(requestIDs, reqID)
	}

	return &transport.Response{
		Content:            content,
		ProviderRequestIDs: requestIDs,
		Usage: transport.NormalizedUsage{
			PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int64(resp.UsageMetadata.TotalTokenCount),
		},
		Headers: httpResp.Header,
		RawBody: body,
	}, nil
}

// parseGoogleError converts Google error responses to ProviderError.
// Extracts error details from Google's JSON error format.
func parseGoogleError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &llmerrors.ProviderError{
			Provider:   ProviderGoogle,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Status,
			Type:       classifyErrorType(statusCode, errResp.Error.Status),
		}
	}

	return &llmerrors.ProviderError{
		Provider:   ProviderGoogle,
		StatusCode: statusCode,
		Message:    string(body),
		Type:       classifyErrorType(statusCode, ""),
	}
}
