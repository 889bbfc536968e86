// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources gathers labeled evidence snippets for a research query.
// Backends (DuckDuckGo Instant Answer, local files) run concurrently; their
// failures degrade the outcome instead of propagating to the caller.
package sources

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Backend looks up sources in a single place.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.Source, error)
}

// Fallbacker is implemented by backends that can offer substitute sources
// when their lookup fails.
type Fallbacker interface {
	Fallback(query string) []types.Source
}

// Outcome is the tagged result of a fetch. Degraded is set when at least one
// backend failed; Sources then holds whatever could be salvaged, possibly
// nothing.
type Outcome struct {
	Sources  []types.Source
	Degraded bool
	Reasons  []string
}

// Provider supplies sources for a query. Fetch never fails.
type Provider interface {
	Fetch(ctx context.Context, query string) Outcome
}

// Aggregator fans a query out to its backends and merges their results in
// backend order, deduplicated by label.
type Aggregator struct {
	backends []Backend
	logger   *zap.Logger
}

// NewAggregator returns a Provider over backends. logger may be nil.
func NewAggregator(logger *zap.Logger, backends ...Backend) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{backends: backends, logger: logger}
}

// Fetch queries every backend concurrently. A failing backend contributes
// its partial results, or its fallback list when it has one, and marks the
// outcome degraded.
func (a *Aggregator) Fetch(ctx context.Context, query string) Outcome {
	type backendResult struct {
		sources []types.Source
		err     error
	}

	results := make([]backendResult, len(a.backends))
	var wg sync.WaitGroup
	for i, b := range a.backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			srcs, err := b.Search(ctx, query)
			results[i] = backendResult{sources: srcs, err: err}
		}(i, b)
	}
	wg.Wait()

	var out Outcome
	for i, br := range results {
		b := a.backends[i]
		srcs := br.sources
		if br.err != nil {
			out.Degraded = true
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s: %v", b.Name(), br.err))
			a.logger.Warn("source backend failed",
				zap.String("backend", b.Name()),
				zap.String("query", query),
				zap.Error(br.err))
			if fb, ok := b.(Fallbacker); ok && len(srcs) == 0 {
				srcs = fb.Fallback(query)
			}
		}
		out.Sources, _ = Merge(out.Sources, srcs)
	}
	if out.Sources == nil {
		out.Sources = []types.Source{}
	}
	return out
}

// Merge appends the incoming sources whose labels are not already present,
// keeping the first occurrence of each label. It returns the merged set and
// the number of sources added. existing itself is not modified.
func Merge(existing, incoming []types.Source) ([]types.Source, int) {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, s := range existing {
		seen[s.Label] = true
	}

	merged := make([]types.Source, len(existing), len(existing)+len(incoming))
	copy(merged, existing)
	added := 0
	for _, s := range incoming {
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		merged = append(merged, s)
		added++
	}
	return merged, added
}

// Labels returns the labels of srcs in order.
func Labels(srcs []types.Source) []string {
	labels := make([]string, len(srcs))
	for i, s := range srcs {
		labels[i] = s.Label
	}
	return labels
}
