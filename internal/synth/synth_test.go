// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

type mockGenerator struct {
	reply string
	err   error
	last  llm.Request
}

func (m *mockGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	m.last = req
	return m.reply, m.err
}

func testRequest() Request {
	return Request{
		Query:         "How is technology evolving in Colombia?",
		Preprocessing: types.Preprocessing{Category: types.CategoryTechnology, Entities: []string{"How", "Colombia"}},
		Sources: []types.Source{
			{Label: "Wikipedia", Content: "Colombia tech overview"},
			{Label: "Reuters", Content: "Startup funding 2024"},
		},
		Iteration: 1,
	}
}

func TestRenderPrompt_FirstIteration(t *testing.T) {
	prompt, err := RenderPrompt(testRequest())
	require.NoError(t, err)

	assert.Contains(t, prompt, "FIRST ITERATION")
	assert.NotContains(t, prompt, "MUST IMPROVE")
	assert.Contains(t, prompt, "MAIN QUERY: How is technology evolving in Colombia?")
	assert.Contains(t, prompt, "ANALYTICAL CATEGORY: technology")
	assert.Contains(t, prompt, "KEY ENTITIES: How, Colombia")
	assert.Contains(t, prompt, "AVAILABLE PRIMARY SOURCES (2)")
	assert.Contains(t, prompt, "SOURCE 1: Wikipedia\nCONTENT: Colombia tech overview")
	assert.Contains(t, prompt, "SOURCE 2: Reuters\nCONTENT: Startup funding 2024")
}

func TestRenderPrompt_WithFeedback(t *testing.T) {
	req := testRequest()
	req.Iteration = 3
	req.Feedback = &Feedback{Iteration: 2, Effectiveness: 62, Observations: "needs more data"}

	prompt, err := RenderPrompt(req)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "FIRST ITERATION")
	assert.Contains(t, prompt, `ITERATION 3: previous evaluation 62%. MUST IMPROVE: "needs more data".`)
}

func TestSynthesize(t *testing.T) {
	gen := &mockGenerator{reply: "# Report"}
	s := New(gen, 2048)

	report, err := s.Synthesize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "# Report", report)
	assert.Equal(t, 2048, gen.last.MaxTokens)
	assert.Contains(t, gen.last.Prompt, "MAIN QUERY")
}

func TestSynthesize_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *mockGenerator
	}{
		{"transport error", &mockGenerator{err: errors.New("connection reset")}},
		{"blank reply", &mockGenerator{reply: "  \n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.gen, 0).Synthesize(context.Background(), testRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSynthesis)
		})
	}
}
