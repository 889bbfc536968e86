// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicKey, "  ak_abc123  \n")
				writeFile(t, dir, OpenAIKey, "sk_xyz789")
				return dir
			},
			want: Secrets{
				AnthropicKey: "ak_abc123",
				OpenAIKey:    "sk_xyz789",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiKey, "gk")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				return dir
			},
			want: Secrets{GeminiKey: "gk"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicKey, "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{AnthropicKey: "ak_123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", " from-env ")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	s := Secrets{AnthropicKey: "from-file"}

	v, ok := s.Lookup(AnthropicKey)
	assert.True(t, ok)
	assert.Equal(t, "from-file", v, "file value wins over environment")

	v, ok = s.Lookup(OpenAIKey)
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)

	_, ok = s.Lookup("unknown-key")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	s := Secrets{OpenAIKey: "b", AnthropicKey: "a"}
	assert.Equal(t, []string{AnthropicKey, OpenAIKey}, s.Keys())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "secrets", "x")

	_, err := Load(filepath.Join(dir, "secrets"), nil)
	assert.ErrorContains(t, err, "reading secrets directory")
}
