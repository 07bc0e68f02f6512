package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all reasoning backend configuration.
type Config struct {
	// Models is the ordered model preference list. Each entry is
	// "provider/model", e.g. "anthropic/claude-sonnet" or
	// "openai/gpt-4o-mini". The first entry is the primary model; the
	// rest are fallbacks tried in order.
	Models []string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single backend attempt.
	// Default: 30s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures per-model retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Models: []string{
			"anthropic/claude-haiku",
			"openai/gpt-4o-mini",
			"gemini/gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if m := os.Getenv("DEEPDIVE_MODELS"); m != "" {
		cfg.Models = splitModels(m)
	}

	if k := os.Getenv("DEEPDIVE_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if k := os.Getenv("DEEPDIVE_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if u := os.Getenv("DEEPDIVE_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}
	if k := os.Getenv("DEEPDIVE_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if k := os.Getenv("DEEPDIVE_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}

	// Fall back to the standard key env vars.
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.OpenRouter.APIKey == "" {
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	return cfg
}

// Validate checks that every entry in the model preference list names a
// known provider with its API key set.
func (c Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("model preference list is empty")
	}
	for _, ref := range c.Models {
		provider, _, err := SplitModelRef(ref)
		if err != nil {
			return err
		}
		switch provider {
		case "anthropic":
			if c.Anthropic.APIKey == "" {
				return fmt.Errorf("DEEPDIVE_ANTHROPIC_API_KEY is required for %q", ref)
			}
		case "openai":
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("DEEPDIVE_OPENAI_API_KEY is required for %q", ref)
			}
		case "gemini":
			if c.Gemini.APIKey == "" {
				return fmt.Errorf("DEEPDIVE_GEMINI_API_KEY is required for %q", ref)
			}
		case "openrouter":
			if c.OpenRouter.APIKey == "" {
				return fmt.Errorf("DEEPDIVE_OPENROUTER_API_KEY is required for %q", ref)
			}
		case "mock":
			// No API key needed.
		default:
			return fmt.Errorf("unknown provider in model ref %q", ref)
		}
	}
	return nil
}

// SplitModelRef parses a "provider/model" reference.
func SplitModelRef(ref string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(ref, "/")
	if !ok || provider == "" || model == "" {
		return "", "", fmt.Errorf("invalid model ref %q: want provider/model", ref)
	}
	return provider, model, nil
}

func splitModels(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
