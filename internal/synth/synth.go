// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns a query and its sources into an analytical report by
// prompting a generative model. Prompts after the first iteration carry the
// evaluator's previous score and observations as corrective feedback.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrSynthesis marks a failed generation call. It aborts the owning loop.
var ErrSynthesis = errors.New("synthesis failed")

// Feedback is the previous iteration's evaluation, fed back into the prompt.
type Feedback struct {
	Iteration     int
	Effectiveness int
	Observations  string
}

// Request is everything one synthesis call needs.
type Request struct {
	Query         string
	Preprocessing types.Preprocessing
	Sources       []types.Source

	// Iteration is the 1-based loop iteration being synthesized.
	Iteration int

	// Feedback is nil on the first iteration.
	Feedback *Feedback
}

// Synthesizer produces a report for a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (string, error)
}

// ModelSynthesizer renders the synthesis prompt and sends it to a Generator.
type ModelSynthesizer struct {
	gen       llm.Generator
	maxTokens int
}

// New returns a Synthesizer backed by gen. maxTokens of 0 uses the backend default.
func New(gen llm.Generator, maxTokens int) *ModelSynthesizer {
	return &ModelSynthesizer{gen: gen, maxTokens: maxTokens}
}

// Synthesize returns the generated report. Any generator failure, including
// an empty reply, is returned wrapped in ErrSynthesis.
func (s *ModelSynthesizer) Synthesize(ctx context.Context, req Request) (string, error) {
	prompt, err := RenderPrompt(req)
	if err != nil {
		return "", fmt.Errorf("%w: rendering prompt: %w", ErrSynthesis, err)
	}

	report, err := s.gen.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: s.maxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	if strings.TrimSpace(report) == "" {
		return "", fmt.Errorf("%w: %w", ErrSynthesis, llm.ErrEmptyResponse)
	}
	return report, nil
}

// promptTmpl is the synthesis prompt. It asks for a structured analytical
// report that integrates every supplied source.
var promptTmpl = template.Must(template.New("synthesis").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}).Parse(`You are a senior research analyst specializing in foresight analysis and the synthesis of complex information. Produce a high-quality research analysis (target: at least 85% effectiveness) that shows academic rigor and analytical depth.

GOAL: a comprehensive analysis that integrates multiple perspectives, shows critical thinking, and gives actionable insights.

{{if .Feedback -}}
ITERATION {{.Iteration}}: previous evaluation {{.Feedback.Effectiveness}}%. MUST IMPROVE: "{{.Feedback.Observations}}". Focus on greater depth, concrete evidence, and academic structure.
{{- else -}}
FIRST ITERATION: lay solid foundations with critical analysis and empirical evidence.
{{- end}}

MAIN QUERY: {{.Query}}
ANALYTICAL CATEGORY: {{.Preprocessing.Category}}
KEY ENTITIES: {{join .Preprocessing.Entities ", "}}

AVAILABLE PRIMARY SOURCES ({{len .Sources}}):
{{range $i, $s := .Sources -}}
SOURCE {{inc $i}}: {{$s.Label}}
CONTENT: {{$s.Content}}
---
{{end}}
ANALYSIS PROTOCOL:

1. THEORETICAL FRAMEWORK AND CONTEXT
   - Establish the relevant historical and theoretical context
   - Define key concepts and applicable analytical frameworks

2. CRITICAL SOURCE ANALYSIS
   - Assess credibility, potential bias, and perspective of each source
   - Identify convergences, divergences, and gaps
   - Cross-reference sources to validate findings

3. SYNTHESIS AND PATTERNS
   - Integrate the sources into a coherent narrative
   - Identify trends, cycles, and causal factors
   - Quantify with specific data where possible

4. FORESIGHT AND SCENARIOS
   - Develop plausible evidence-based scenarios
   - Assess probabilities and risk factors
   - Consider exogenous variables and tipping points

5. CONCLUSIONS AND RECOMMENDATIONS
   - Summarize key findings with empirical evidence
   - Give specific, actionable recommendations
   - Identify areas for further research

6. METHODOLOGY APPENDIX
   - Document the sources consulted and evaluation criteria
   - Explain methodological limitations and potential bias

Use descriptive numbered headings, cross-references between sections, precise technical language, and concrete evidence for every claim.

WRITE THE COMPLETE ANALYSIS NOW:
`))

// RenderPrompt executes the synthesis template for req.
func RenderPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
