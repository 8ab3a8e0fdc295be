package rubric

import (
	"context"
	"errors"
	"notebookeval/internal/model"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func evaluate(t *testing.T, policy ScorePolicy, reply string, genErr error) model.Evaluation {
	t.Helper()
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(reply, genErr)
	return NewEvaluator(gen, policy).Evaluate(context.Background(), "print(1)")
}

func TestEvaluate_ValidReply(t *testing.T) {
	reply := "Here you go:\n```json\n{\n  \"Completeness\": 8,\n  \"Code Quality\": 7,\n  \"Documentation\": 9,\n  \"Insightfulness\": 8\n}\n```"

	ev := evaluate(t, PolicyClamp, reply, nil)

	_, failed := ev.Failure()
	require.False(t, failed)
	assert.Equal(t, model.RubricScore{Completeness: 8, CodeQuality: 7, Documentation: 9, Insightfulness: 8}, ev.Score())
	assert.InDelta(t, 80.0, ev.Score().Percentage(), 1e-9)
	assert.Empty(t, ev.Notes())
}

func TestEvaluate_NoJSON(t *testing.T) {
	ev := evaluate(t, PolicyClamp, "I cannot grade this notebook.", nil)

	f, failed := ev.Failure()
	require.True(t, failed)
	assert.Equal(t, model.FailureNoJSON, f.Kind)
	assert.Equal(t, "No valid JSON found", ev.Notes())
	assert.Equal(t, model.RubricScore{}, ev.Score())
}

func TestEvaluate_GeneratorError(t *testing.T) {
	ev := evaluate(t, PolicyClamp, "", errors.New("quota exceeded"))

	f, failed := ev.Failure()
	require.True(t, failed)
	assert.Equal(t, model.FailureGenerate, f.Kind)
	assert.Equal(t, "quota exceeded", ev.Notes())
	assert.Zero(t, ev.Score().Total())
}

func TestEvaluate_InvalidJSON(t *testing.T) {
	ev := evaluate(t, PolicyClamp, `{"Completeness": eight}`, nil)

	f, failed := ev.Failure()
	require.True(t, failed)
	assert.Equal(t, model.FailureDecode, f.Kind)
	assert.NotEmpty(t, ev.Notes())
}

func TestEvaluate_NonNumericScore(t *testing.T) {
	ev := evaluate(t, PolicyClamp, `{"Completeness": "8"}`, nil)

	f, failed := ev.Failure()
	require.True(t, failed)
	assert.Equal(t, model.FailureDecode, f.Kind)
	assert.Contains(t, ev.Notes(), "Completeness")
}

func TestEvaluate_PartialReply(t *testing.T) {
	ev := evaluate(t, PolicyClamp, `{"Completeness": 6, "Documentation": 4.6}`, nil)

	_, failed := ev.Failure()
	require.False(t, failed)
	assert.Equal(t, model.RubricScore{Completeness: 6, Documentation: 5}, ev.Score())
}

func TestEvaluate_FirstObjectOnly(t *testing.T) {
	ev := evaluate(t, PolicyClamp, `{"Completeness": 1} and later {"Completeness": 9}`, nil)

	assert.Equal(t, 1, ev.Score().Completeness)
}

func TestEvaluate_OutOfRange(t *testing.T) {
	reply := `{"Completeness": 50, "Code Quality": -3, "Documentation": 10, "Insightfulness": 0}`

	t.Run("Clamp", func(t *testing.T) {
		ev := evaluate(t, PolicyClamp, reply, nil)
		assert.Equal(t, model.RubricScore{Completeness: 10, CodeQuality: 0, Documentation: 10}, ev.Score())
	})

	t.Run("Passthrough", func(t *testing.T) {
		ev := evaluate(t, PolicyPassthrough, reply, nil)
		assert.Equal(t, model.RubricScore{Completeness: 50, CodeQuality: -3, Documentation: 10}, ev.Score())
	})

	t.Run("Reject", func(t *testing.T) {
		ev := evaluate(t, PolicyReject, reply, nil)
		f, failed := ev.Failure()
		require.True(t, failed)
		assert.Equal(t, model.FailureOutOfRange, f.Kind)
		assert.Zero(t, ev.Score().Total())
	})
}

func TestEvaluate_PromptCarriesRubricAndContent(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Code Quality (0-10)") &&
			strings.HasSuffix(p, "\n\nNotebook Content:\nprint(1)\n")
	})).Return(`{"Completeness": 1}`, nil)

	NewEvaluator(gen, PolicyClamp).Evaluate(context.Background(), "print(1)")

	gen.AssertExpectations(t)
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"passthrough", "clamp", "reject"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, ScorePolicy(s), p)
	}

	_, err := ParsePolicy("ignore")
	assert.Error(t, err)
}
