// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Parse errors. Evaluate maps all of them to Fallback.
var (
	ErrNoJSON          = errors.New("no JSON object in evaluator reply")
	ErrMissingScore    = errors.New("effectiveness missing from evaluator reply")
	ErrScoreOutOfRange = errors.New("effectiveness outside [0, 100]")
)

// Defaults for optional verdict fields.
const (
	defaultCoverage     = 0.5
	defaultImprovement  = 0.0
	defaultObservations = "evaluation completed"
)

// verdict mirrors the evaluator's JSON with pointer fields so absent keys
// can be told apart from zero values.
type verdict struct {
	Effectiveness *float64 `json:"effectiveness"`
	Coverage      *float64 `json:"coverage"`
	Improvement   *float64 `json:"improvement"`
	Observations  *string  `json:"observations"`
}

// Parse decodes an evaluator reply. It first tries the whole reply as JSON,
// then the first balanced {...} span inside it. Effectiveness must be a
// number in [0, 100]; fractional scores are rounded. Missing coverage,
// improvement and observations take defaults; coverage and improvement are
// clamped to [0, 1].
func Parse(reply string) (types.Evaluation, error) {
	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &v); err != nil {
		span, ok := firstObject(reply)
		if !ok {
			return types.Evaluation{}, ErrNoJSON
		}
		v = verdict{}
		if err := json.Unmarshal([]byte(span), &v); err != nil {
			return types.Evaluation{}, fmt.Errorf("decoding evaluator JSON: %w", err)
		}
	}

	if v.Effectiveness == nil {
		return types.Evaluation{}, ErrMissingScore
	}
	score := *v.Effectiveness
	if math.IsNaN(score) || score < 0 || score > 100 {
		return types.Evaluation{}, fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}

	eval := types.Evaluation{
		Effectiveness: int(math.Round(score)),
		Coverage:      defaultCoverage,
		Improvement:   defaultImprovement,
		Observations:  defaultObservations,
	}
	if v.Coverage != nil {
		eval.Coverage = clamp01(*v.Coverage)
	}
	if v.Improvement != nil {
		eval.Improvement = clamp01(*v.Improvement)
	}
	if v.Observations != nil {
		eval.Observations = *v.Observations
	}
	return eval, nil
}

// firstObject returns the first balanced {...} span of s. Braces inside JSON
// string literals are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}
