package llm

import (
	"fmt"
	"os"
)

// Options carries the provider-independent knobs used by NewProvider.
type Options struct {
	// BaseURL overrides the upstream endpoint (tests, proxies, Azure gateways).
	BaseURL string
	// RateLimitRPM caps requests per minute. Zero disables limiting.
	RateLimitRPM int
	Retry        RetryPolicy
}

// NewProvider creates a provider for "openai", "anthropic" or "ollama",
// reading credentials from the environment, wrapped with the rate limiter
// and retry policy from opts.
func NewProvider(providerType, model string, opts Options) (Provider, error) {
	var p Provider
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, model, opts.BaseURL)

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		p = NewAnthropicProvider(apiKey, model, opts.BaseURL)

	case "ollama":
		host := opts.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		p = NewOllamaProvider(host, model)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	// Each retry attempt waits on the limiter too.
	p = NewRateLimitedProvider(p, opts.RateLimitRPM)
	if opts.Retry.Attempts > 0 {
		p = NewRetryingProvider(p, opts.Retry)
	}
	return p, nil
}
