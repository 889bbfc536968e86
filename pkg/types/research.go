// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research loop.
// Covers the research records (Source, Evaluation, Result), the batch
// partitions (BatchResult), and the audit trail (AuditEvent, SessionRecord).
package types

import "time"

// Category values produced by query preprocessing. Any query that does not
// mention one of the known domains is classified as CategoryGeneral.
const (
	CategoryEducation  = "education"
	CategoryHealth     = "health"
	CategoryTechnology = "technology"
	CategoryEconomy    = "economy"
	CategoryGeneral    = "general"
)

// Preprocessing is the classification derived once per query.
type Preprocessing struct {
	// Category is one of the Category* constants.
	Category string `json:"category" yaml:"category"`

	// Entities lists capitalized words found in the query, in query order.
	Entities []string `json:"entities" yaml:"entities"`
}

// Source is a labeled text snippet offered as evidence to synthesis.
// Within one research run sources are deduplicated by Label.
type Source struct {
	Label   string `json:"label" yaml:"label"`
	Content string `json:"content" yaml:"content"`
}

// Evaluation is the structured score an evaluator assigns to a report.
type Evaluation struct {
	// Effectiveness is the overall quality score in [0, 100].
	Effectiveness int `json:"effectiveness" yaml:"effectiveness"`

	// Coverage is how well the report used and connected the sources, in [0, 1].
	Coverage float64 `json:"coverage" yaml:"coverage"`

	// Improvement is the quality delta against the previous iteration, in [0, 1].
	Improvement float64 `json:"improvement" yaml:"improvement"`

	// Observations is the evaluator's free-text feedback.
	Observations string `json:"observations" yaml:"observations"`
}

// IterationRecord captures what happened in one completed iteration.
type IterationRecord struct {
	Iteration    int        `json:"iteration" yaml:"iteration"`
	SourceCount  int        `json:"source_count" yaml:"source_count"`
	Evaluation   Evaluation `json:"evaluation" yaml:"evaluation"`
	Degraded     bool       `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Augmented    bool       `json:"augmented,omitempty" yaml:"augmented,omitempty"`
	AddedSources int        `json:"added_sources,omitempty" yaml:"added_sources,omitempty"`
}

// Result is the outcome of one research loop execution.
type Result struct {
	SessionID string   `json:"session_id" yaml:"session_id"`
	Query     string   `json:"query" yaml:"query"`
	User      string   `json:"user" yaml:"user"`
	Category  string   `json:"category" yaml:"category"`
	Entities  []string `json:"entities" yaml:"entities"`

	// Report is the final synthesized report text.
	Report string `json:"report" yaml:"report"`

	// Evaluation is the score of the final report.
	Evaluation Evaluation `json:"evaluation" yaml:"evaluation"`

	// Iterations is the number of iterations actually run.
	Iterations int `json:"iterations" yaml:"iterations"`

	// SourceCount is the number of distinct sources at completion.
	SourceCount  int      `json:"source_count" yaml:"source_count"`
	SourceLabels []string `json:"source_labels" yaml:"source_labels"`

	History []IterationRecord `json:"history" yaml:"history"`

	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// BatchSuccess is a query that completed, with its position in the batch.
type BatchSuccess struct {
	Index  int     `json:"index" yaml:"index"`
	Query  string  `json:"query" yaml:"query"`
	Result *Result `json:"result" yaml:"result"`
}

// BatchFailure is a query whose loop terminated with an error.
type BatchFailure struct {
	Index int    `json:"index" yaml:"index"`
	Query string `json:"query" yaml:"query"`
	Error string `json:"error" yaml:"error"`
}

// BatchResult partitions batch outcomes. Both slices preserve input order.
type BatchResult struct {
	Succeeded []BatchSuccess `json:"succeeded" yaml:"succeeded"`
	Failed    []BatchFailure `json:"failed" yaml:"failed"`
}

// Total returns the number of queries processed.
func (b BatchResult) Total() int {
	return len(b.Succeeded) + len(b.Failed)
}

// HasFailures reports whether any query failed.
func (b BatchResult) HasFailures() bool {
	return len(b.Failed) > 0
}

// AuditEvent is one append-only record in the audit trail.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	SessionID string         `json:"session_id" yaml:"session_id"`
	Stage     string         `json:"stage" yaml:"stage"`
	Detail    string         `json:"detail" yaml:"detail"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SessionRecord summarizes the audited lifetime of one research loop.
type SessionRecord struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	Query     string    `json:"query" yaml:"query"`
	User      string    `json:"user" yaml:"user"`
	StartTime time.Time `json:"start_time" yaml:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Result    *Result   `json:"result,omitempty" yaml:"result,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}
