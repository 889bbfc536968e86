// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/access"
	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("secrets_dir", ".secrets/")

	v.SetDefault("research.max_iterations", 5)
	v.SetDefault("research.quality_threshold", 85)
	v.SetDefault("research.coverage_threshold", 0.7)
	v.SetDefault("research.max_concurrency", 0)

	v.SetDefault("synthesis.provider", string(types.ProviderClaude))
	v.SetDefault("synthesis.max_tokens", 4096)
	v.SetDefault("synthesis.timeout", 120*time.Second)
	v.SetDefault("synthesis.max_retries", 3)

	v.SetDefault("evaluation.provider", string(types.ProviderClaude))
	v.SetDefault("evaluation.timeout", 60*time.Second)
	v.SetDefault("evaluation.max_retries", 3)

	v.SetDefault("sources.enable_web", true)
	v.SetDefault("sources.enable_arxiv", false)
	v.SetDefault("sources.max_papers", 3)
	v.SetDefault("sources.data_dir", "data")
	v.SetDefault("sources.max_content_chars", 500)
	v.SetDefault("sources.timeout", 15*time.Second)
	v.SetDefault("sources.max_retries", 2)

	v.SetDefault("audit.log_file", "logs/audit.log")
	v.SetDefault("audit.db_path", "")

	v.SetDefault("access.allowed_users", access.DefaultUsers)
	_ = v.BindEnv("access.allowed_users", "DEEP_RESEARCH_ALLOWED_USERS")
}

// loadConfig reads the typed configuration from v.
func loadConfig(v *viper.Viper) types.Config {
	return types.Config{
		Research: types.ResearchConfig{
			MaxIterations:     v.GetInt("research.max_iterations"),
			QualityThreshold:  v.GetInt("research.quality_threshold"),
			CoverageThreshold: v.GetFloat64("research.coverage_threshold"),
			MaxConcurrency:    v.GetInt("research.max_concurrency"),
		},
		Synthesis:  aiConfig(v, "synthesis"),
		Evaluation: aiConfig(v, "evaluation"),
		Sources: types.SourcesConfig{
			HTTPConfig:      httpConfig(v, "sources"),
			EnableWeb:       v.GetBool("sources.enable_web"),
			EnableArxiv:     v.GetBool("sources.enable_arxiv"),
			MaxPapers:       v.GetInt("sources.max_papers"),
			DataDir:         v.GetString("sources.data_dir"),
			MaxContentChars: v.GetInt("sources.max_content_chars"),
		},
		Audit: types.AuditConfig{
			LogFile: v.GetString("audit.log_file"),
			DBPath:  v.GetString("audit.db_path"),
		},
		Access: types.AccessConfig{AllowedUsers: allowedUsers(v)},
	}
}

func httpConfig(v *viper.Viper, prefix string) types.HTTPConfig {
	ua := v.GetString(prefix + ".user_agent")
	if ua == "" {
		ua = "deep-research/" + version
	}
	return types.HTTPConfig{
		Timeout:    v.GetDuration(prefix + ".timeout"),
		UserAgent:  ua,
		MaxRetries: v.GetInt(prefix + ".max_retries"),
	}
}

func aiConfig(v *viper.Viper, prefix string) types.AIConfig {
	cfg := types.AIConfig{
		HTTPConfig: httpConfig(v, prefix),
		Provider:   types.AIProvider(v.GetString(prefix + ".provider")),
		Model:      v.GetString(prefix + ".model"),
		APIKey:     v.GetString(prefix + ".api_key"),
		MaxTokens:  v.GetInt(prefix + ".max_tokens"),
	}
	if v.IsSet(prefix + ".temperature") {
		t := v.GetFloat64(prefix + ".temperature")
		cfg.Temperature = &t
	}
	return cfg
}

// allowedUsers accepts a YAML list or a comma-separated string (as set
// through DEEP_RESEARCH_ALLOWED_USERS).
func allowedUsers(v *viper.Viper) []string {
	if s, ok := v.Get("access.allowed_users").(string); ok {
		return access.ParseList(s)
	}
	return v.GetStringSlice("access.allowed_users")
}

// providerSecret maps a provider to the secret holding its API key.
var providerSecret = map[types.AIProvider]string{
	"":                   secrets.AnthropicKey,
	types.ProviderClaude: secrets.AnthropicKey,
	types.ProviderOpenAI: secrets.OpenAIKey,
	types.ProviderGemini: secrets.GeminiKey,
}

// withAPIKey fills cfg.APIKey from s when the config leaves it empty.
func withAPIKey(cfg types.AIConfig, s secrets.Secrets) (types.AIConfig, error) {
	if cfg.APIKey != "" {
		return cfg, nil
	}
	name, ok := providerSecret[cfg.Provider]
	if !ok {
		return cfg, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	key, ok := s.Lookup(name)
	if !ok {
		return cfg, fmt.Errorf("%s API key not found: add .secrets/%s or set the environment variable", orClaude(cfg.Provider), name)
	}
	cfg.APIKey = key
	return cfg, nil
}

func orClaude(p types.AIProvider) types.AIProvider {
	if p == "" {
		return types.ProviderClaude
	}
	return p
}
