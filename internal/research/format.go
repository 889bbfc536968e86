// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const rule = "================================================================"

// FormatText writes the human-readable summary of a result.
func FormatText(w io.Writer, res *types.Result) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "QUERY: %s\n", res.Query)
	fmt.Fprintf(w, "CATEGORY: %s\n", res.Category)
	if len(res.Entities) > 0 {
		fmt.Fprintf(w, "ENTITIES: %s\n", strings.Join(res.Entities, ", "))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimSpace(res.Report))
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Effectiveness: %d%%\n", res.Evaluation.Effectiveness)
	fmt.Fprintf(w, "Coverage:      %.1f%%\n", res.Evaluation.Coverage*100)
	fmt.Fprintf(w, "Improvement:   %.1f%%\n", res.Evaluation.Improvement*100)
	fmt.Fprintf(w, "Observations:  %s\n", res.Evaluation.Observations)
	fmt.Fprintf(w, "Iterations:    %d\n", res.Iterations)
	fmt.Fprintf(w, "Sources:       %d\n", res.SourceCount)
	fmt.Fprintf(w, "Session:       %s\n", res.SessionID)
}

// FormatBatchSummary writes one line per query followed by totals.
func FormatBatchSummary(w io.Writer, batch types.BatchResult) {
	fmt.Fprintf(w, "%-4s  %-6s  %-50s  %s\n", "#", "STATUS", "QUERY", "DETAIL")
	rows := make([]string, batch.Total())
	for _, s := range batch.Succeeded {
		rows[s.Index] = fmt.Sprintf("%-4d  %-6s  %-50s  effectiveness %d%%, %d iterations",
			s.Index+1, "ok", truncate(s.Query, 50), s.Result.Evaluation.Effectiveness, s.Result.Iterations)
	}
	for _, f := range batch.Failed {
		rows[f.Index] = fmt.Sprintf("%-4d  %-6s  %-50s  %s", f.Index+1, "failed", truncate(f.Query, 50), f.Error)
	}
	for _, row := range rows {
		fmt.Fprintln(w, row)
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", len(batch.Succeeded), len(batch.Failed))
}

// FormatJSON writes v as indented JSON.
func FormatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML saves v to path as YAML.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
