package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the embedding model. Vectors from different names are
	// not comparable.
	Name() string
}

// NewEmbedder creates an embedder for "openai" or "ollama". An empty
// baseURL selects the provider's default endpoint.
func NewEmbedder(provider, model, baseURL string) (Embedder, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model), baseURL), nil
	case "ollama":
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_HOST")
		}
		return NewOllamaEmbedder(model, baseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
