package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on rate-limited or overloaded responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIProvider identifies the generative model backend.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOpenAI AIProvider = "openai"
	ProviderGemini AIProvider = "gemini"
)

// AIConfig holds settings for one generative model role (synthesis or evaluation).
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the backend: claude, openai, or gemini.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps the length of a single response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature controls sampling randomness. Nil leaves the provider default.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// SourcesConfig holds settings for the source provider.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// EnableWeb controls whether the DuckDuckGo Instant Answer backend is used.
	EnableWeb bool `json:"enable_web" yaml:"enable_web"`

	// EnableArxiv adds paper abstracts from the arXiv API.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// MaxPapers caps arXiv abstracts per fetch (default 3).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// DataDir is scanned for .txt and .md files mentioning the query.
	// Empty disables the local backend.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxContentChars truncates local file and abstract content (default 500).
	MaxContentChars int `json:"max_content_chars" yaml:"max_content_chars"`
}

// AuditConfig selects where audit events are written.
type AuditConfig struct {
	// LogFile is the JSON-lines audit file (e.g. "logs/audit.log"). Empty disables it.
	LogFile string `json:"log_file" yaml:"log_file"`

	// DBPath is the SQLite audit database. Empty disables it.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// AccessConfig holds the static allow-list of users.
type AccessConfig struct {
	AllowedUsers []string `json:"allowed_users" yaml:"allowed_users"`
}

// ResearchConfig holds the loop and batch settings.
type ResearchConfig struct {
	// MaxIterations is the default iteration cap (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// QualityThreshold stops iterating once effectiveness reaches it (default 85).
	QualityThreshold int `json:"quality_threshold" yaml:"quality_threshold"`

	// CoverageThreshold triggers source augmentation below it (default 0.7).
	CoverageThreshold float64 `json:"coverage_threshold" yaml:"coverage_threshold"`

	// MaxConcurrency bounds concurrent loops in a batch. Zero means unbounded.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
}

// Config groups all component configurations.
type Config struct {
	Research   ResearchConfig `json:"research" yaml:"research"`
	Synthesis  AIConfig       `json:"synthesis" yaml:"synthesis"`
	Evaluation AIConfig       `json:"evaluation" yaml:"evaluation"`
	Sources    SourcesConfig  `json:"sources" yaml:"sources"`
	Audit      AuditConfig    `json:"audit" yaml:"audit"`
	Access     AccessConfig   `json:"access" yaml:"access"`
}
