package config

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI:    {Model: "gpt-4-1106-preview", EmbeddingModel: "text-embedding-3-small"},
	ProviderAnthropic: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama:    {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultExcludes are repository paths never offered to the matcher.
var DefaultExcludes = []string{
	"node_modules/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"**/*.min.js",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             defaultModels[ProviderOpenAI].Model,
		Temperature:       0.2,
		MaxTokens:         2000,
		RateLimitRPM:      60,
		MaxContentBytes:   60_000,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    defaultModels[ProviderOpenAI].EmbeddingModel,
		DataDir:           ".graphix",
		MaxConcurrency:    5,
		GitHub: GitHubConfig{
			TokenEnv:     "GITHUB_TOKEN",
			Exclude:      DefaultExcludes,
			MaxFileBytes: 1 << 20,
		},
		Matcher: MatcherConfig{
			Mode:      MatcherEmbedding,
			Threshold: 0.1,
			TopN:      3,
		},
		Cache: CacheConfig{Scope: ScopeIssue},
		Export: ExportConfig{
			Scale:          2,
			Background:     "#0f0f0f",
			TimeoutSeconds: 30,
			OutputDir:      ".",
		},
		Server: ServerConfig{Port: 8080},
	}
}

// DefaultModel returns the chat and embedding models for a provider,
// falling back to the OpenAI defaults.
func DefaultModel(p ProviderType) (model, embeddingModel string) {
	m, ok := defaultModels[p]
	if !ok {
		m = defaultModels[ProviderOpenAI]
	}
	return m.Model, m.EmbeddingModel
}
