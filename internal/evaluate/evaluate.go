// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores synthesized reports with a generative model acting
// as an evaluator. Evaluate never fails: transport errors and malformed or
// out-of-range scores resolve to a fixed fallback Evaluation, reported as a
// degraded Outcome.
package evaluate

import (
	"bytes"
	"context"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Fallback is the Evaluation used whenever a score cannot be obtained.
var Fallback = types.Evaluation{
	Effectiveness: 50,
	Coverage:      0.5,
	Improvement:   0,
	Observations:  "evaluation failed, defaults used",
}

const (
	// evalMaxTokens and evalTemperature keep scoring replies short and stable.
	evalMaxTokens   = 350
	evalTemperature = 0.1
)

// Input is the material an evaluation is based on.
type Input struct {
	Query       string
	SourceCount int
	Report      string
}

// Outcome is the tagged result of an evaluation. When Degraded is set,
// Evaluation equals Fallback and Reason says why.
type Outcome struct {
	Evaluation types.Evaluation
	Degraded   bool
	Reason     string
}

// Evaluator scores a report. Evaluate never fails.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) Outcome
}

// ModelEvaluator prompts a Generator and parses its JSON verdict.
type ModelEvaluator struct {
	gen    llm.Generator
	logger *zap.Logger
}

// New returns an Evaluator backed by gen. logger may be nil.
func New(gen llm.Generator, logger *zap.Logger) *ModelEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelEvaluator{gen: gen, logger: logger}
}

// Evaluate asks the model for a score and parses it.
func (e *ModelEvaluator) Evaluate(ctx context.Context, in Input) Outcome {
	prompt, err := renderPrompt(in)
	if err != nil {
		return e.degrade(in, "rendering prompt: "+err.Error())
	}

	temp := evalTemperature
	reply, err := e.gen.Generate(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   evalMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return e.degrade(in, "calling evaluator: "+err.Error())
	}

	eval, err := Parse(reply)
	if err != nil {
		return e.degrade(in, err.Error())
	}
	return Outcome{Evaluation: eval}
}

func (e *ModelEvaluator) degrade(in Input, reason string) Outcome {
	e.logger.Warn("evaluation degraded to defaults",
		zap.String("query", in.Query),
		zap.String("reason", reason))
	return Outcome{Evaluation: Fallback, Degraded: true, Reason: reason}
}

var promptTmpl = template.Must(template.New("evaluation").Parse(`You are an expert evaluator of in-depth research reports.
Analyze the following report and score it on academic criteria of accuracy, depth and coherence.

QUERY:
{{.Query}}

SOURCES USED: {{.SourceCount}}

REPORT TO EVALUATE:
{{.Report}}

EVALUATION CRITERIA:

EFFECTIVENESS (0-100):
- Accuracy and correctness of the information (20%)
- Depth of analysis and complexity addressed (20%)
- Effective integration of multiple sources (15%)
- Academic structure and logical coherence (15%)
- Empirical evidence and concrete references (15%)
- Original insights and critical thinking (10%)
- Practical, actionable recommendations (5%)

COVERAGE (0.0-1.0):
- How well relevant sources were used and connected.

IMPROVEMENT (0.0-1.0):
- Quality increase relative to the previous iteration.

Reply ONLY with valid JSON:
{
  "effectiveness": 92,
  "coverage": 0.88,
  "improvement": 0.12,
  "observations": "Deep, well-structured analysis with good integration of reliable sources."
}
`))

func renderPrompt(in Input) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
