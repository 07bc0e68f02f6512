package llm

import (
	"context"
	"fmt"
)

// NewCatalog builds a ModelCatalog from configuration. Each entry in the
// model preference list becomes one candidate, wrapped with event logging
// when events is non-nil.
func NewCatalog(ctx context.Context, cfg Config, events EventRecorder) (*ModelCatalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(cfg.Models))
	for _, ref := range cfg.Models {
		p, err := newProvider(ctx, cfg, ref)
		if err != nil {
			return nil, fmt.Errorf("initializing %q: %w", ref, err)
		}
		if events != nil {
			providerName, _, _ := SplitModelRef(ref)
			p = WithLogging(p, providerName, events)
		}
		candidates = append(candidates, Candidate{Ref: ref, Provider: p})
	}

	return NewModelCatalog(candidates...), nil
}

// NewGatewayFromEnv builds a Gateway from environment configuration.
func NewGatewayFromEnv(ctx context.Context, events EventRecorder) (*Gateway, error) {
	cfg := ConfigFromEnv()
	catalog, err := NewCatalog(ctx, cfg, events)
	if err != nil {
		return nil, err
	}
	return NewGateway(catalog, cfg.Retry, cfg.Timeout), nil
}

func newProvider(ctx context.Context, cfg Config, ref string) (Provider, error) {
	providerName, model, err := SplitModelRef(ref)
	if err != nil {
		return nil, err
	}

	switch providerName {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, model)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, model)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini, model)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter, model)
	case "mock":
		return NewNamedMockProvider(ref), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", providerName)
	}
}
