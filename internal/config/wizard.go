package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the handful of settings that differ between
// installations and saves the result to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to graphix! Let's configure issue analysis.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model, cfg.EmbeddingModel = DefaultModel(cfg.Provider)
	if cfg.Provider == ProviderOllama {
		cfg.EmbeddingProvider = ProviderOllama
	}

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	matcherPrompt := promptui.Select{
		Label: "How should matching files be ranked",
		Items: []string{
			"embedding: rank locally with embeddings",
			"remote: call a match-keywords service",
		},
	}
	idx, _, err := matcherPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("matcher selection: %w", err)
	}
	if idx == 1 {
		cfg.Matcher.Mode = MatcherRemote
		urlPrompt := promptui.Prompt{
			Label:    "Match-keywords URL",
			Validate: requireHTTP,
		}
		if cfg.Matcher.RemoteURL, err = urlPrompt.Run(); err != nil {
			return nil, fmt.Errorf("matcher url: %w", err)
		}
	}

	scopePrompt := promptui.Select{
		Label: "Cache analyses per",
		Items: []string{string(ScopeIssue), string(ScopeRepository)},
	}
	_, scopeStr, err := scopePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache scope: %w", err)
	}
	cfg.Cache.Scope = CacheScope(scopeStr)

	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	cfg.GitHub.Exclude = append(append([]string{}, DefaultExcludes...), splitAndTrim(excludeStr)...)

	for _, envVar := range []string{APIKeyEnvVar(cfg.Provider), cfg.GitHub.TokenEnv} {
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment or .env before running graphix analyze.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func requireHTTP(s string) error {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and drops empty entries.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
