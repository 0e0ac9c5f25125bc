package llm

import (
	"fmt"
	"os"
)

// Spec selects and configures a provider. An empty APIKey falls back to the
// provider's conventional environment variable.
type Spec struct {
	Type    string
	Model   string
	APIKey  string
	BaseURL string
}

// NewProvider creates a new LLM provider from spec.
// Supported provider types: "openai", "openrouter", "anthropic", "ollama".
func NewProvider(spec Spec) (Provider, error) {
	switch spec.Type {
	case "openai":
		apiKey := firstNonEmpty(spec.APIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, spec.Model, spec.BaseURL), nil

	case "openrouter":
		apiKey := firstNonEmpty(spec.APIKey, os.Getenv("OPENROUTER_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		return NewOpenRouterProvider(apiKey, spec.Model, spec.BaseURL), nil

	case "anthropic":
		apiKey := firstNonEmpty(spec.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, spec.Model, spec.BaseURL), nil

	case "ollama":
		host := firstNonEmpty(spec.BaseURL, os.Getenv("OLLAMA_HOST"), "http://localhost:11434")
		return NewOllamaProvider(host, spec.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", spec.Type)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
