// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("DEEP_RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig(newViper(t, ""))

	assert.Equal(t, 5, cfg.Research.MaxIterations)
	assert.Equal(t, 85, cfg.Research.QualityThreshold)
	assert.InDelta(t, 0.7, cfg.Research.CoverageThreshold, 1e-9)
	assert.Zero(t, cfg.Research.MaxConcurrency)

	assert.Equal(t, types.ProviderClaude, cfg.Synthesis.Provider)
	assert.Equal(t, 120*time.Second, cfg.Synthesis.Timeout)
	assert.Nil(t, cfg.Synthesis.Temperature)

	assert.True(t, cfg.Sources.EnableWeb)
	assert.Equal(t, "data", cfg.Sources.DataDir)
	assert.Equal(t, 500, cfg.Sources.MaxContentChars)
	assert.Equal(t, "deep-research/"+version, cfg.Sources.UserAgent)

	assert.Equal(t, "logs/audit.log", cfg.Audit.LogFile)
	assert.Empty(t, cfg.Audit.DBPath)
	assert.Equal(t, []string{"admin"}, cfg.Access.AllowedUsers)
}

func TestLoadConfig_File(t *testing.T) {
	cfg := loadConfig(newViper(t, `
research:
  max_iterations: 3
  max_concurrency: 4
synthesis:
  provider: gemini
  model: gemini-2.5-pro
  temperature: 0.4
sources:
  enable_web: false
  enable_arxiv: true
  timeout: 5s
audit:
  db_path: logs/audit.db
access:
  allowed_users: [alice, bob]
`))

	assert.Equal(t, 3, cfg.Research.MaxIterations)
	assert.Equal(t, 4, cfg.Research.MaxConcurrency)
	assert.Equal(t, types.ProviderGemini, cfg.Synthesis.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Synthesis.Model)
	require.NotNil(t, cfg.Synthesis.Temperature)
	assert.InDelta(t, 0.4, *cfg.Synthesis.Temperature, 1e-9)
	assert.False(t, cfg.Sources.EnableWeb)
	assert.True(t, cfg.Sources.EnableArxiv)
	assert.Equal(t, 3, cfg.Sources.MaxPapers)
	assert.Equal(t, 5*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "logs/audit.db", cfg.Audit.DBPath)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Access.AllowedUsers)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DEEP_RESEARCH_ALLOWED_USERS", "alice, bob,,carol")
	t.Setenv("DEEP_RESEARCH_RESEARCH_MAX_ITERATIONS", "7")

	cfg := loadConfig(newViper(t, ""))
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Access.AllowedUsers)
	assert.Equal(t, 7, cfg.Research.MaxIterations)
}

func TestWithAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	s := secrets.Secrets{secrets.AnthropicKey: "sk-ant"}

	cfg, err := withAPIKey(types.AIConfig{}, s)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.APIKey)

	cfg, err = withAPIKey(types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "explicit"}, s)
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.APIKey)

	_, err = withAPIKey(types.AIConfig{Provider: types.ProviderOpenAI}, s)
	assert.ErrorContains(t, err, secrets.OpenAIKey)

	_, err = withAPIKey(types.AIConfig{Provider: "mistral"}, s)
	assert.ErrorContains(t, err, "unknown AI provider")
}

func TestDefaultUser(t *testing.T) {
	assert.Equal(t, "alice", defaultUser(types.Config{Access: types.AccessConfig{AllowedUsers: []string{" ", "alice", "bob"}}}))
	assert.Empty(t, defaultUser(types.Config{}))
}

func TestPrintEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEvents(&buf, nil, false))
	assert.Contains(t, buf.String(), "No events found.")

	buf.Reset()
	events := []types.AuditEvent{
		{Timestamp: time.Now(), SessionID: "session_1", Stage: "session.start", Detail: "query: q, user: admin"},
		{Timestamp: time.Now(), SessionID: "session_1", Stage: "preprocess", Detail: "category: general"},
	}
	require.NoError(t, printEvents(&buf, events, false))
	assert.Contains(t, buf.String(), "session.start")
	assert.Contains(t, buf.String(), "category: general")
	assert.Contains(t, buf.String(), "2 events")
}

func TestPrintSessions(t *testing.T) {
	var buf bytes.Buffer
	printSessions(&buf, []types.SessionRecord{
		{SessionID: "session_a", User: "admin", Query: "done query", StartTime: time.Now(), EndTime: time.Now()},
		{SessionID: "session_b", User: "admin", Query: "failed query", StartTime: time.Now(), EndTime: time.Now(), Error: "boom"},
		{SessionID: "session_c", User: "admin", Query: "open query", StartTime: time.Now()},
	})
	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[1], "done")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[3], "running")
}
