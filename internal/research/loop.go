// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/audit"
	"github.com/pdiddy/deep-research/internal/evaluate"
	"github.com/pdiddy/deep-research/internal/preprocess"
	"github.com/pdiddy/deep-research/internal/sources"
	"github.com/pdiddy/deep-research/internal/synth"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Run executes one research loop for query. maxIterations <= 0 uses the
// configured default.
//
// An unknown user fails with access.ErrAccessDenied before any side effect.
// A synthesis failure, cancellation, or panic aborts the loop; the session
// is then closed with a session.failed event and the error is returned.
func (r *Runner) Run(ctx context.Context, query string, maxIterations int, user string) (*types.Result, error) {
	if err := r.allow.Check(user); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if maxIterations <= 0 {
		maxIterations = r.cfg.MaxIterations
	}

	session := r.recorder.Open(ctx, query, user)
	log := r.logger.With(zap.String("session_id", session.ID))
	log.Info("research started", zap.String("query", query), zap.String("user", user), zap.Int("max_iterations", maxIterations))

	result, err := r.guardedIterate(ctx, session, maxIterations)
	if err != nil {
		session.Fail(ctx, err)
		log.Warn("research failed", zap.Error(err))
		return nil, err
	}

	session.Finalize(ctx, result)
	log.Info("research finished",
		zap.Int("iterations", result.Iterations),
		zap.Int("effectiveness", result.Evaluation.Effectiveness),
		zap.Int("sources", result.SourceCount))
	return result, nil
}

// guardedIterate is iterate with a panic converted to an error.
func (r *Runner) guardedIterate(ctx context.Context, session *audit.Session, maxIterations int) (res *types.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("research panicked: %v", p)
			r.logger.Error("research panicked", zap.String("session_id", session.ID), zap.Any("panic", p))
		}
	}()
	return r.iterate(ctx, session, maxIterations)
}

// iterate runs the preprocess, fetch, synthesize, evaluate cycle. Every step
// completes before the next starts; the context is checked before each
// external call.
func (r *Runner) iterate(ctx context.Context, session *audit.Session, maxIterations int) (*types.Result, error) {
	query := session.Query

	prep := preprocess.Query(query)
	session.Event(ctx, audit.StagePreprocess,
		fmt.Sprintf("category: %s, entities: %s", prep.Category, strings.Join(prep.Entities, ", ")),
		map[string]any{"category": prep.Category, "entities": prep.Entities})

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	initial := r.sources.Fetch(ctx, query)
	srcs, _ := sources.Merge(nil, initial.Sources)
	session.Event(ctx, audit.StageInitialSources,
		fmt.Sprintf("sources found: %d", len(srcs)),
		fetchMetadata(len(srcs), initial))

	var (
		report  string
		eval    types.Evaluation
		history []types.IterationRecord
	)

	for iteration := 1; ; iteration++ {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		session.Event(ctx, audit.StageIterationStart,
			fmt.Sprintf("iteration %d: starting analysis", iteration),
			map[string]any{"iteration": iteration, "sources": len(srcs)})

		req := synth.Request{
			Query:         query,
			Preprocessing: prep,
			Sources:       srcs,
			Iteration:     iteration,
		}
		if iteration > 1 {
			req.Feedback = &synth.Feedback{
				Iteration:     iteration - 1,
				Effectiveness: eval.Effectiveness,
				Observations:  eval.Observations,
			}
		}

		rep, err := r.synth.Synthesize(ctx, req)
		if err != nil {
			if cerr := checkCancelled(ctx); cerr != nil {
				return nil, cerr
			}
			if !errors.Is(err, synth.ErrSynthesis) {
				err = fmt.Errorf("%w: %w", synth.ErrSynthesis, err)
			}
			return nil, fmt.Errorf("iteration %d: %w", iteration, err)
		}
		report = rep
		session.Event(ctx, audit.StageSynthesis,
			fmt.Sprintf("iteration %d: report completed (%d chars)", iteration, len(report)),
			map[string]any{"iteration": iteration, "chars": len(report)})

		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		out := r.eval.Evaluate(ctx, evaluate.Input{Query: query, SourceCount: len(srcs), Report: report})
		eval = out.Evaluation
		session.Event(ctx, audit.StageEvaluation,
			fmt.Sprintf("iteration %d: effectiveness %d%%, coverage %.1f%%, improvement %.1f%%",
				iteration, eval.Effectiveness, eval.Coverage*100, eval.Improvement*100),
			map[string]any{
				"iteration":     iteration,
				"effectiveness": eval.Effectiveness,
				"coverage":      eval.Coverage,
				"improvement":   eval.Improvement,
				"degraded":      out.Degraded,
			})

		rec := types.IterationRecord{
			Iteration:   iteration,
			SourceCount: len(srcs),
			Evaluation:  eval,
			Degraded:    out.Degraded,
		}

		if r.done(eval, iteration, maxIterations) {
			history = append(history, rec)
			return r.assemble(session, prep, report, eval, iteration, srcs, history), nil
		}

		if r.needsAugmentation(eval) {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}
			more := r.sources.Fetch(ctx, broadenedQuery(query, prep))
			var added int
			srcs, added = sources.Merge(srcs, more.Sources)
			rec.Augmented = true
			rec.AddedSources = added
			session.Event(ctx, audit.StageAugmentation,
				fmt.Sprintf("iteration %d: fetched additional sources, %d new", iteration, added),
				fetchMetadata(len(srcs), more))
		}
		history = append(history, rec)
	}
}

func (r *Runner) assemble(session *audit.Session, prep types.Preprocessing, report string, eval types.Evaluation, iterations int, srcs []types.Source, history []types.IterationRecord) *types.Result {
	return &types.Result{
		SessionID:    session.ID,
		Query:        session.Query,
		User:         session.User,
		Category:     prep.Category,
		Entities:     prep.Entities,
		Report:       report,
		Evaluation:   eval,
		Iterations:   iterations,
		SourceCount:  len(srcs),
		SourceLabels: sources.Labels(srcs),
		History:      history,
		StartedAt:    session.Start,
		CompletedAt:  r.now().UTC(),
	}
}

func fetchMetadata(count int, out sources.Outcome) map[string]any {
	meta := map[string]any{"count": count, "degraded": out.Degraded}
	if len(out.Reasons) > 0 {
		meta["reasons"] = out.Reasons
	}
	return meta
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
