// Package providers implements HTTP adapters for the completion
// providers the gateway can fall back across. Each adapter translates
// the normalized transport request into the provider's wire format and
// parses the response back, classifying failures along the way.
package providers

import (
	"fmt"

	"github.com/patternscribe/scribe/internal/llm/configuration"
	llmerrors "github.com/patternscribe/scribe/internal/llm/errors"
	"github.com/patternscribe/scribe/internal/llm/transport"
)

// Supported completion provider identifiers.
// These constants must match the provider names used in configuration.
const (
	ProviderOpenAI    = "openai"    // OpenAI GPT models and compatible gateways
	ProviderAnthropic = "anthropic" // Anthropic Claude models
	ProviderGoogle    = "google"    // Google Gemini models
)

// NewRouter creates a router with one adapter per configured provider
// record, keyed by chain position. The same provider name may appear
// on several records so the keys are positional, not by name. An
// Endpoint on the record overrides the adapter's default base URL,
// which is how OpenAI-compatible custom gateways are reached.
func NewRouter(records []configuration.ProviderRecord) (transport.Router, error) {
	adapters := make([]transport.ProviderAdapter, len(records))

	for i, rec := range records {
		switch rec.Name {
		case ProviderOpenAI:
			adapters[i] = NewOpenAIAdapter(rec)
		case ProviderAnthropic:
			adapters[i] = NewAnthropicAdapter(rec)
		case ProviderGoogle:
			adapters[i] = NewGoogleAdapter(rec)
		default:
			return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, rec.Name)
		}
	}

	return &router{adapters: adapters}, nil
}

// router implements transport.Router over the ordered adapter chain.
type router struct {
	adapters []transport.ProviderAdapter
}

// Pick selects the adapter for the given chain position.
// Returns an error if no record was configured at that position.
func (r *router) Pick(route int) (transport.ProviderAdapter, error) {
	if route < 0 || route >= len(r.adapters) {
		return nil, fmt.Errorf("%w: route %d", llmerrors.ErrUnknownProvider, route)
	}
	return r.adapters[route], nil
}
