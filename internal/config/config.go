package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".graphix.yml"

// EnvPrefix prefixes environment overrides. A double underscore descends
// into a section: GRAPHIX_CACHE__SCOPE sets cache.scope.
const EnvPrefix = "GRAPHIX_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (GRAPHIX_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderOllama:    true,
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, anthropic, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.Matcher.Mode {
	case MatcherEmbedding:
		if c.EmbeddingProvider != ProviderOpenAI && c.EmbeddingProvider != ProviderOllama {
			return fmt.Errorf("invalid embedding_provider %q: must be openai or ollama", c.EmbeddingProvider)
		}
	case MatcherRemote:
		if c.Matcher.RemoteURL == "" {
			return fmt.Errorf("matcher.remote_url is required when matcher.mode is remote")
		}
	default:
		return fmt.Errorf("invalid matcher.mode %q: must be embedding or remote", c.Matcher.Mode)
	}
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher.threshold must be between 0 and 1")
	}
	if c.Matcher.TopN < 1 {
		return fmt.Errorf("matcher.top_n must be at least 1")
	}

	if c.Cache.Scope != ScopeIssue && c.Cache.Scope != ScopeRepository {
		return fmt.Errorf("invalid cache.scope %q: must be issue or repository", c.Cache.Scope)
	}

	if c.Export.Scale <= 0 {
		return fmt.Errorf("export.scale must be positive")
	}
	if !hexColor.MatchString(c.Export.Background) {
		return fmt.Errorf("export.background must be a #rrggbb color, got %q", c.Export.Background)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// GitHubToken returns the token read from the configured environment variable.
func (c *Config) GitHubToken() string {
	name := c.GitHub.TokenEnv
	if name == "" {
		name = "GITHUB_TOKEN"
	}
	return os.Getenv(name)
}
