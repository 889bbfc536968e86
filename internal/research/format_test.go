// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

func sampleResult() *types.Result {
	return &types.Result{
		SessionID: "session_1",
		Query:     "AI in education",
		Category:  types.CategoryEducation,
		Entities:  []string{"AI"},
		Report:    "  The report.\n",
		Evaluation: types.Evaluation{
			Effectiveness: 87,
			Coverage:      0.75,
			Improvement:   0.125,
			Observations:  "solid",
		},
		Iterations:  2,
		SourceCount: 4,
	}
}

func TestFormatText(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"QUERY: AI in education",
		"CATEGORY: education",
		"ENTITIES: AI",
		"\nThe report.\n",
		"Effectiveness: 87%",
		"Coverage:      75.0%",
		"Improvement:   12.5%",
		"Observations:  solid",
		"Iterations:    2",
		"Sources:       4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestFormatBatchSummary(t *testing.T) {
	batch := types.BatchResult{
		Succeeded: []types.BatchSuccess{{Index: 0, Query: "first", Result: sampleResult()}},
		Failed:    []types.BatchFailure{{Index: 1, Query: "second", Error: "synthesis failed: boom"}},
	}
	var buf bytes.Buffer
	FormatBatchSummary(&buf, batch)
	out := buf.String()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, string(lines[1]), "first")
	assert.Contains(t, string(lines[1]), "effectiveness 87%")
	assert.Contains(t, string(lines[2]), "second")
	assert.Contains(t, string(lines[2]), "boom")
	assert.Contains(t, out, "1 succeeded, 1 failed")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, sampleResult()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(2), got["iterations"])
	assert.Equal(t, "session_1", got["session_id"])
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.yaml")
	require.NoError(t, WriteYAML(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.Result
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "AI in education", got.Query)
	assert.Equal(t, 87, got.Evaluation.Effectiveness)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
