package rubric

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"
	"regexp"

	"go.uber.org/zap"
)

const noJSONMessage = "No valid JSON found"

var firstObject = regexp.MustCompile(`\{[\s\S]*?\}`)

// Generator sends a prompt to a hosted model and returns its text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ScorePolicy decides what happens to criterion scores outside [0, 10].
type ScorePolicy string

const (
	PolicyPassthrough ScorePolicy = "passthrough"
	PolicyClamp       ScorePolicy = "clamp"
	PolicyReject      ScorePolicy = "reject"
)

func ParsePolicy(s string) (ScorePolicy, error) {
	switch p := ScorePolicy(s); p {
	case PolicyPassthrough, PolicyClamp, PolicyReject:
		return p, nil
	}
	return "", fmt.Errorf("unknown score policy %q", s)
}

type Evaluator struct {
	gen    Generator
	policy ScorePolicy
}

func NewEvaluator(gen Generator, policy ScorePolicy) *Evaluator {
	return &Evaluator{gen: gen, policy: policy}
}

// Evaluate scores one notebook's text. It never fails: every problem is
// reported as a failed model.Evaluation with zero scores.
func (e *Evaluator) Evaluate(ctx context.Context, content string) model.Evaluation {
	reply, err := e.gen.Generate(ctx, BuildPrompt(content))
	if err != nil {
		e.warn(ctx, "generation failed", err)
		return model.Failed(model.FailureGenerate, err.Error())
	}

	ev := e.parse(reply)
	if f, failed := ev.Failure(); failed {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Warn(ctx, "unusable model reply", zap.String("kind", string(f.Kind)), zap.String("reason", f.Message))
		}
	}
	return ev
}

func (e *Evaluator) parse(reply string) model.Evaluation {
	match := firstObject.FindString(reply)
	if match == "" {
		return model.Failed(model.FailureNoJSON, noJSONMessage)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return model.Failed(model.FailureDecode, err.Error())
	}

	var score model.RubricScore
	fields := []struct {
		key string
		dst *int
	}{
		{keyCompleteness, &score.Completeness},
		{keyCodeQuality, &score.CodeQuality},
		{keyDocumentation, &score.Documentation},
		{keyInsightfulness, &score.Insightfulness},
	}
	for _, f := range fields {
		v, present := raw[f.key]
		if !present || v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return model.Failed(model.FailureDecode, fmt.Sprintf("%s is not a number: %v", f.key, v))
		}
		value := int(math.Round(n))
		if value < 0 || value > model.MaxCriterionScore {
			switch e.policy {
			case PolicyReject:
				return model.Failed(model.FailureOutOfRange, fmt.Sprintf("%s score %d outside 0-%d", f.key, value, model.MaxCriterionScore))
			case PolicyClamp:
				value = min(max(value, 0), model.MaxCriterionScore)
			}
		}
		*f.dst = value
	}
	return model.Scored(score)
}

func (e *Evaluator) warn(ctx context.Context, msg string, err error) {
	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Warn(ctx, msg, zap.Error(err))
	}
}
