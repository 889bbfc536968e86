// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// --- mock backends ---

type mockBackend struct {
	name    string
	sources []types.Source
	err     error
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ string) ([]types.Source, error) {
	return m.sources, m.err
}

type fallbackBackend struct {
	mockBackend
}

func (f *fallbackBackend) Fallback(query string) []types.Source {
	return []types.Source{{Label: "fallback", Content: query}}
}

func src(labels ...string) []types.Source {
	out := make([]types.Source, len(labels))
	for i, l := range labels {
		out[i] = types.Source{Label: l, Content: "content of " + l}
	}
	return out
}

// --- Merge ---

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		existing  []types.Source
		incoming  []types.Source
		want      []string
		wantAdded int
	}{
		{"disjoint", src("a", "b"), src("c"), []string{"a", "b", "c"}, 1},
		{"overlap keeps first", src("a", "b"), src("b", "c"), []string{"a", "b", "c"}, 1},
		{"duplicates within incoming", nil, src("x", "x", "y"), []string{"x", "y"}, 2},
		{"nothing new", src("a"), src("a"), []string{"a"}, 0},
		{"empty", nil, nil, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, added := Merge(tt.existing, tt.incoming)
			assert.Equal(t, tt.want, Labels(merged))
			assert.Equal(t, tt.wantAdded, added)
		})
	}
}

func TestMerge_FirstSeenContentWins(t *testing.T) {
	existing := []types.Source{{Label: "a", Content: "original"}}
	merged, _ := Merge(existing, []types.Source{{Label: "a", Content: "replacement"}})
	require.Len(t, merged, 1)
	assert.Equal(t, "original", merged[0].Content)
}

func TestMerge_DoesNotModifyExisting(t *testing.T) {
	existing := make([]types.Source, 1, 10)
	existing[0] = types.Source{Label: "a"}
	_, _ = Merge(existing, src("b"))
	assert.Equal(t, "", existing[:2][1].Label, "spare capacity of existing must not be written")
}

// --- Aggregator ---

func TestAggregator_MergesInBackendOrder(t *testing.T) {
	agg := NewAggregator(nil,
		&mockBackend{name: "web", sources: src("w1", "shared")},
		&mockBackend{name: "local", sources: src("shared", "l1")},
	)
	out := agg.Fetch(context.Background(), "q")

	assert.False(t, out.Degraded)
	assert.Empty(t, out.Reasons)
	assert.Equal(t, []string{"w1", "shared", "l1"}, Labels(out.Sources))
}

func TestAggregator_DegradesOnBackendError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	agg := NewAggregator(zap.New(core),
		&mockBackend{name: "web", err: errors.New("timeout")},
		&mockBackend{name: "local", sources: src("l1")},
	)
	out := agg.Fetch(context.Background(), "q")

	assert.True(t, out.Degraded)
	require.Len(t, out.Reasons, 1)
	assert.Contains(t, out.Reasons[0], "web: timeout")
	assert.Equal(t, []string{"l1"}, Labels(out.Sources))
	assert.Equal(t, 1, logs.FilterMessage("source backend failed").Len())
}

func TestAggregator_UsesFallback(t *testing.T) {
	agg := NewAggregator(nil, &fallbackBackend{mockBackend{name: "web", err: errors.New("down")}})
	out := agg.Fetch(context.Background(), "economy")

	assert.True(t, out.Degraded)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "fallback", out.Sources[0].Label)
	assert.Equal(t, "economy", out.Sources[0].Content)
}

func TestAggregator_AllFailStillReturnsSlice(t *testing.T) {
	agg := NewAggregator(nil, &mockBackend{name: "a", err: errors.New("x")})
	out := agg.Fetch(context.Background(), "q")
	assert.True(t, out.Degraded)
	assert.NotNil(t, out.Sources)
	assert.Empty(t, out.Sources)
}

// --- DuckDuckGo ---

func withDDG(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	old := duckDuckGoAPIBase
	duckDuckGoAPIBase = ts.URL + "/"
	t.Cleanup(func() { duckDuckGoAPIBase = old })
	return &DuckDuckGo{Client: ts.Client(), UserAgent: "test/0.1"}
}

func TestDuckDuckGo_Search(t *testing.T) {
	d := withDDG(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		w.Write([]byte(`{
			"Answer": "42",
			"Abstract": "Go is a language.",
			"AbstractSource": "Wikipedia",
			"RelatedTopics": [
				{"Text": "Topic one"},
				{"Name": "group", "Topics": []},
				{"Text": "Topic three"},
				{"Text": "Topic four is ignored"}
			]
		}`))
	})

	got, err := d.Search(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"DuckDuckGo Instant Answer",
		"Wikipedia",
		"DuckDuckGo Related 1",
		"DuckDuckGo Related 3",
	}, Labels(got))
	assert.Equal(t, "42", got[0].Content)
}

func TestDuckDuckGo_EmptyAnswerUsesPlaceholders(t *testing.T) {
	d := withDDG(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Answer":"","Abstract":"","RelatedTopics":[]}`))
	})

	got, err := d.Search(context.Background(), "obscure topic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Wikipedia", "Reuters", "ResearchGate"}, Labels(got))
	assert.Contains(t, got[0].Content, "obscure topic")
}

func TestDuckDuckGo_HTTPError(t *testing.T) {
	d := withDDG(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := d.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")

	fb := d.Fallback("q")
	assert.Equal(t, []string{"Wikipedia", "BBC News", "Academic Journal"}, Labels(fb))
}

// --- LocalFiles ---

func TestLocalFiles_Search(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b-notes.md", "Notes on Renewable Energy in Chile.")
	writeFile(t, dir, "a-report.txt", "renewable energy "+strings.Repeat("x", 600))
	writeFile(t, dir, "unrelated.txt", "nothing to see")
	writeFile(t, dir, "data.csv", "renewable energy")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0o755))

	l := &LocalFiles{Dir: dir}
	got, err := l.Search(context.Background(), "Renewable Energy")
	require.NoError(t, err)

	assert.Equal(t, []string{"Local file: a-report.txt", "Local file: b-notes.md"}, Labels(got))
	assert.Len(t, []rune(got[0].Content), defaultMaxContentChars+3)
	assert.True(t, strings.HasSuffix(got[0].Content, "..."))
	assert.Equal(t, "Notes on Renewable Energy in Chile.", got[1].Content)
}

func TestLocalFiles_MissingDir(t *testing.T) {
	l := &LocalFiles{Dir: filepath.Join(t.TempDir(), "absent")}
	got, err := l.Search(context.Background(), "q")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
