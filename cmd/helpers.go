package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/config"
	"github.com/issuewiz/graphix/internal/db"
	"github.com/issuewiz/graphix/internal/embeddings"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/llm"
	"github.com/issuewiz/graphix/internal/matcher"
	"github.com/issuewiz/graphix/internal/pipeline"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `graphix init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates the rate-limited, retrying chat provider.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model, llm.Options{
		BaseURL:      cfg.BaseURL,
		RateLimitRPM: cfg.RateLimitRPM,
		Retry:        llm.DefaultRetryPolicy,
	})
}

// createEmbedderFromConfig creates the embedder used by the local matcher.
// Providers without native embeddings fall back to OpenAI.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		_, model = config.DefaultModel(provider)
	}
	if provider != config.ProviderOllama {
		provider = config.ProviderOpenAI
	}
	return embeddings.NewEmbedder(string(provider), model, "")
}

func createAnalyzer(cfg *config.Config) (*analysis.Analyzer, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return analysis.NewAnalyzer(provider, analysis.Options{
		Model:           cfg.Model,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		MaxContentBytes: cfg.MaxContentBytes,
	}), nil
}

func createGitHubClient(cfg *config.Config) (*github.Client, error) {
	client, err := github.NewClient(github.Options{
		Token:        cfg.GitHubToken(),
		BaseURL:      cfg.GitHub.BaseURL,
		Exclude:      cfg.GitHub.Exclude,
		MaxFileBytes: cfg.GitHub.MaxFileBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client (set %s): %w", cfg.GitHub.TokenEnv, err)
	}
	return client, nil
}

// createMatcher returns the remote matcher when configured, otherwise the
// embedding matcher backed by the persisted index under the data directory.
func createMatcher(cfg *config.Config, fetcher analysis.Fetcher) (matcher.Matcher, error) {
	if cfg.Matcher.Mode == config.MatcherRemote {
		return matcher.NewRemoteMatcher(cfg.Matcher.RemoteURL), nil
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	index, err := matcher.NewIndex(embedder, filepath.Join(cfg.DataDir, "embeddings.gob.gz"))
	if err != nil {
		return nil, fmt.Errorf("loading embedding index: %w", err)
	}
	return matcher.NewEmbeddingMatcher(index, fetcher, matcher.EmbeddingOptions{
		Threshold: cfg.Matcher.Threshold,
		TopN:      cfg.Matcher.TopN,
		Downloads: cfg.MaxConcurrency,
	}), nil
}

// openStore opens the analysis cache database under the data directory.
func openStore(cfg *config.Config) (*cache.Store, *db.DB, error) {
	dbPath := filepath.Join(cfg.DataDir, "graphix.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	return cache.NewStore(database), database, nil
}

// createPipeline wires GitHub, the matcher and the analyzer over store.
func createPipeline(cfg *config.Config, analyzer *analysis.Analyzer, store *cache.Store, opts pipeline.Options) (*pipeline.Pipeline, error) {
	client, err := createGitHubClient(cfg)
	if err != nil {
		return nil, err
	}
	m, err := createMatcher(cfg, client)
	if err != nil {
		return nil, err
	}
	if opts.Scope == "" {
		opts.Scope = cfg.Cache.Scope
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = cfg.MaxConcurrency
	}
	return pipeline.New(client, m, analyzer, store, opts), nil
}

// exportStrategies returns headless Chrome first, then the canvas fallback.
func exportStrategies(cfg *config.Config) []export.Strategy {
	var strategies []export.Strategy
	if !cfg.Export.DisableChrome {
		strategies = append(strategies, &export.ChromeStrategy{ExecPath: cfg.Export.ChromePath})
	}
	return append(strategies, export.CanvasStrategy{})
}

func exportOptions(cfg *config.Config) export.Options {
	return export.Options{
		Scale:      cfg.Export.Scale,
		Background: cfg.Export.Background,
		Timeout:    time.Duration(cfg.Export.TimeoutSeconds) * time.Second,
	}
}

// record appends e to the audit trail; failures only warn.
func record(ctx context.Context, trail *audit.Store, e audit.Entry) {
	if _, err := trail.Log(ctx, e); err != nil {
		slog.Warn("recording audit entry", "action", e.Action, "error", err)
	}
}
