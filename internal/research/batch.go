// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deep-research/pkg/types"
)

// RunBatch runs one research loop per query concurrently and partitions the
// outcomes. It never fails: a loop that errors or panics lands in Failed
// and does not affect the others. Both partitions keep input order.
//
// ResearchConfig.MaxConcurrency bounds the number of loops in flight; zero
// runs them all at once.
func (r *Runner) RunBatch(ctx context.Context, queries []string, maxIterations int, user string) types.BatchResult {
	type slot struct {
		result *types.Result
		err    error
	}
	slots := make([]slot, len(queries))

	var g errgroup.Group
	if r.cfg.MaxConcurrency > 0 {
		g.SetLimit(r.cfg.MaxConcurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			res, err := r.Run(ctx, q, maxIterations, user)
			slots[i] = slot{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := types.BatchResult{
		Succeeded: []types.BatchSuccess{},
		Failed:    []types.BatchFailure{},
	}
	for i, s := range slots {
		if s.err != nil {
			out.Failed = append(out.Failed, types.BatchFailure{Index: i, Query: queries[i], Error: s.err.Error()})
			continue
		}
		out.Succeeded = append(out.Succeeded, types.BatchSuccess{Index: i, Query: queries[i], Result: s.result})
	}

	r.logger.Info("batch complete",
		zap.Int("total", out.Total()),
		zap.Int("succeeded", len(out.Succeeded)),
		zap.Int("failed", len(out.Failed)))
	return out
}
