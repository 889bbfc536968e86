// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides text-generation backends for the synthesis and
// evaluation roles: the Claude Messages API, the OpenAI Chat Completions API,
// and Gemini through google.golang.org/genai.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Generator produces text for a single prompt. Implementations must be safe
// for concurrent use; the batch runner shares one Generator across loops.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one generation call.
type Request struct {
	Prompt string

	// MaxTokens caps the response length. Zero uses the backend default.
	MaxTokens int

	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float64
}

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("model returned no text content")

const (
	defaultMaxTokens = 4096
	defaultTimeout   = 120 * time.Second
)

// New builds the Generator selected by cfg.Provider. The API key must be set.
func New(ctx context.Context, cfg types.AIConfig) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case types.ProviderClaude, "":
		return &ClaudeBackend{
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultClaudeModel),
			Client:     client,
			MaxRetries: cfg.MaxRetries,
			defaults:   defaultsFrom(cfg),
		}, nil
	case types.ProviderOpenAI:
		return &OpenAIBackend{
			APIKey:     cfg.APIKey,
			Model:      orDefault(cfg.Model, defaultOpenAIModel),
			Client:     client,
			MaxRetries: cfg.MaxRetries,
			defaults:   defaultsFrom(cfg),
		}, nil
	case types.ProviderGemini:
		return NewGeminiBackend(ctx, cfg.APIKey, orDefault(cfg.Model, defaultGeminiModel), defaultsFrom(cfg))
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// defaultsFrom captures config-level token and temperature settings that
// apply when a Request leaves them unset.
func defaultsFrom(cfg types.AIConfig) Request {
	return Request{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
}

// withDefaults fills unset request fields from d.
func withDefaults(req, d Request) Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = d.MaxTokens
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	if req.Temperature == nil {
		req.Temperature = d.Temperature
	}
	return req
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
