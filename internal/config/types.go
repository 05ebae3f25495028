package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// MatcherMode selects how issue-to-file matches are obtained.
type MatcherMode string

const (
	// MatcherEmbedding ranks files locally with embedding similarity.
	MatcherEmbedding MatcherMode = "embedding"
	// MatcherRemote posts to an external match-keywords service.
	MatcherRemote MatcherMode = "remote"
)

// CacheScope decides which part of the issue URL keys the analysis cache.
type CacheScope string

const (
	// ScopeIssue keys analyses by owner/repo#issue.
	ScopeIssue CacheScope = "issue"
	// ScopeRepository shares analyses across every issue of a repository.
	ScopeRepository CacheScope = "repository"
)

// Config is the top-level graphix configuration, corresponding to .graphix.yml.
type Config struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	BaseURL           string        `yaml:"base_url,omitempty" koanf:"base_url"`
	Temperature       float64       `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int           `yaml:"max_tokens" koanf:"max_tokens"`
	RateLimitRPM      int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxContentBytes   int           `yaml:"max_content_bytes" koanf:"max_content_bytes"`
	EmbeddingProvider ProviderType  `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string        `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string        `yaml:"data_dir" koanf:"data_dir"`
	MaxConcurrency    int           `yaml:"max_concurrency" koanf:"max_concurrency"`
	GitHub            GitHubConfig  `yaml:"github" koanf:"github"`
	Matcher           MatcherConfig `yaml:"matcher" koanf:"matcher"`
	Cache             CacheConfig   `yaml:"cache" koanf:"cache"`
	Export            ExportConfig  `yaml:"export" koanf:"export"`
	Server            ServerConfig  `yaml:"server" koanf:"server"`
}

// GitHubConfig controls issue fetching and the repository walk.
type GitHubConfig struct {
	// TokenEnv names the environment variable holding the access token.
	TokenEnv     string   `yaml:"token_env" koanf:"token_env"`
	BaseURL      string   `yaml:"base_url,omitempty" koanf:"base_url"`
	Exclude      []string `yaml:"exclude" koanf:"exclude"`
	MaxFileBytes int64    `yaml:"max_file_bytes" koanf:"max_file_bytes"`
}

// MatcherConfig controls file ranking.
type MatcherConfig struct {
	Mode      MatcherMode `yaml:"mode" koanf:"mode"`
	RemoteURL string      `yaml:"remote_url,omitempty" koanf:"remote_url"`
	Threshold float64     `yaml:"threshold" koanf:"threshold"`
	TopN      int         `yaml:"top_n" koanf:"top_n"`
}

// CacheConfig controls analysis caching.
type CacheConfig struct {
	Scope CacheScope `yaml:"scope" koanf:"scope"`
}

// ExportConfig controls PNG export.
type ExportConfig struct {
	Scale          float64 `yaml:"scale" koanf:"scale"`
	Background     string  `yaml:"background" koanf:"background"`
	ChromePath     string  `yaml:"chrome_path,omitempty" koanf:"chrome_path"`
	DisableChrome  bool    `yaml:"disable_chrome" koanf:"disable_chrome"`
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	OutputDir      string  `yaml:"output_dir" koanf:"output_dir"`
}

// ServerConfig controls the web server.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
