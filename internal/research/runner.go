// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the iterative research loop: fetch sources,
// synthesize a report, evaluate it, and repeat with feedback and, when
// coverage is low, more sources, until the report is good enough or the
// iteration cap is hit. RunBatch runs many loops concurrently and isolates
// their failures.
package research

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/access"
	"github.com/pdiddy/deep-research/internal/audit"
	"github.com/pdiddy/deep-research/internal/evaluate"
	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/internal/synth"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Defaults applied to zero-valued ResearchConfig fields.
const (
	DefaultMaxIterations     = 5
	DefaultQualityThreshold  = 85
	DefaultCoverageThreshold = 0.7
)

// ErrCancelled wraps the context error of a loop aborted by cancellation.
var ErrCancelled = errors.New("research cancelled")

// Runner executes research loops. A Runner holds no per-loop state and is
// safe for concurrent use; each Run owns its session and loop state.
type Runner struct {
	cfg      types.ResearchConfig
	allow    *access.AllowList
	sources  sources.Provider
	synth    synth.Synthesizer
	eval     evaluate.Evaluator
	recorder *audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSources sets the source provider.
func WithSources(p sources.Provider) Option {
	return func(r *Runner) { r.sources = p }
}

// WithSynthesizer sets the report synthesizer.
func WithSynthesizer(s synth.Synthesizer) Option {
	return func(r *Runner) { r.synth = s }
}

// WithEvaluator sets the report evaluator.
func WithEvaluator(e evaluate.Evaluator) Option {
	return func(r *Runner) { r.eval = e }
}

// WithRecorder sets the audit recorder. Without one, events are discarded.
func WithRecorder(rec *audit.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New builds a Runner. The source provider, synthesizer, and evaluator are
// required; allow must not be nil.
func New(cfg types.ResearchConfig, allow *access.AllowList, opts ...Option) (*Runner, error) {
	if allow == nil {
		return nil, fmt.Errorf("allow-list is required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}
	if cfg.CoverageThreshold <= 0 {
		cfg.CoverageThreshold = DefaultCoverageThreshold
	}

	r := &Runner{
		cfg:    cfg,
		allow:  allow,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	switch {
	case r.sources == nil:
		return nil, fmt.Errorf("source provider is required")
	case r.synth == nil:
		return nil, fmt.Errorf("synthesizer is required")
	case r.eval == nil:
		return nil, fmt.Errorf("evaluator is required")
	}
	if r.recorder == nil {
		r.recorder = audit.NewRecorder(r.logger)
	}
	return r, nil
}

// Config returns the effective configuration, defaults applied.
func (r *Runner) Config() types.ResearchConfig {
	return r.cfg
}

// done reports whether the loop stops after this iteration's evaluation.
func (r *Runner) done(eval types.Evaluation, iteration, maxIterations int) bool {
	return eval.Effectiveness >= r.cfg.QualityThreshold || iteration >= maxIterations
}

// needsAugmentation reports whether more sources should be fetched before
// the next iteration.
func (r *Runner) needsAugmentation(eval types.Evaluation) bool {
	return eval.Coverage < r.cfg.CoverageThreshold
}

// broadenedQuery is the query used for augmentation fetches. The category
// stays the one detected for the original query.
func broadenedQuery(query string, prep types.Preprocessing) string {
	return query + " " + prep.Category
}
