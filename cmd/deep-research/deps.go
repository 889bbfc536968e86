// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/access"
	"github.com/pdiddy/deep-research/internal/audit"
	"github.com/pdiddy/deep-research/internal/evaluate"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/internal/synth"
	"github.com/pdiddy/deep-research/pkg/types"
)

// app is the wired research runner plus the resources it holds open.
type app struct {
	runner  *research.Runner
	closers []func() error
}

// Close releases the audit sinks.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// defaultUser returns the first configured user that is not blank.
func defaultUser(cfg types.Config) string {
	for _, u := range cfg.Access.AllowedUsers {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

// newApp builds the runner from cfg. Model backends are created with API
// keys from s.
func newApp(ctx context.Context, cfg types.Config, s secrets.Secrets, log *zap.Logger) (*app, error) {
	a := &app{}

	synthCfg, err := withAPIKey(cfg.Synthesis, s)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	synthGen, err := llm.New(ctx, synthCfg)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	evalCfg, err := withAPIKey(cfg.Evaluation, s)
	if err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}
	evalGen, err := llm.New(ctx, evalCfg)
	if err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}

	sinks := []audit.Sink{audit.NewLogSink(log)}
	if cfg.Audit.LogFile != "" {
		fs, err := audit.NewFileSink(cfg.Audit.LogFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
		a.closers = append(a.closers, fs.Close)
	}
	if cfg.Audit.DBPath != "" {
		store, err := audit.NewStore(cfg.Audit.DBPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, store)
		a.closers = append(a.closers, store.Close)
	}

	runner, err := research.New(cfg.Research, access.NewAllowList(cfg.Access.AllowedUsers),
		research.WithSources(newProvider(cfg.Sources, log)),
		research.WithSynthesizer(synth.New(synthGen, cfg.Synthesis.MaxTokens)),
		research.WithEvaluator(evaluate.New(evalGen, log)),
		research.WithRecorder(audit.NewRecorder(log, sinks...)),
		research.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.runner = runner
	return a, nil
}

func newProvider(cfg types.SourcesConfig, log *zap.Logger) *sources.Aggregator {
	var backends []sources.Backend
	if cfg.EnableWeb {
		backends = append(backends, sources.NewDuckDuckGo(cfg.HTTPConfig))
	}
	if cfg.EnableArxiv {
		backends = append(backends, sources.NewArxiv(cfg))
	}
	if cfg.DataDir != "" {
		backends = append(backends, &sources.LocalFiles{Dir: cfg.DataDir, MaxChars: cfg.MaxContentChars})
	}
	return sources.NewAggregator(log, backends...)
}
