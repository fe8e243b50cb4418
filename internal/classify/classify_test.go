package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannav/internal/config"
)

func defaultTable() PolicyTable {
	return NewPolicyTable(config.Scoring{
		AlertBelow:      60,
		FixCommitScore:  40,
		FixDisplayScore: 30,
		Labels:          config.DefaultLabelPolicies(),
	})
}

func TestBest_StableArgmax(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	best, ok := Best([]Prediction{
		{Label: "bad", Confidence: 0.2},
		{Label: "good", Confidence: 0.5},
		{Label: "perfect", Confidence: 0.3},
	})
	require.True(t, ok)
	assert.Equal(t, "good", best.Label)

	// tie resolves to the first maximal prediction
	best, ok = Best([]Prediction{
		{Label: "good", Confidence: 0.5},
		{Label: "perfect", Confidence: 0.5},
	})
	require.True(t, ok)
	assert.Equal(t, "good", best.Label)
}

func TestEvaluate_GoodCappedAt85(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "good", Confidence: 0.99},
		{Label: "bad", Confidence: 0.01},
	})
	require.NoError(t, err)

	assert.True(t, v.Accepted)
	assert.Equal(t, "good", v.Label)
	assert.Equal(t, 85, v.Score)
}

func TestEvaluate_PerfectUncapped(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "perfect", Confidence: 0.99},
	})
	require.NoError(t, err)

	assert.True(t, v.Accepted)
	assert.Equal(t, 99, v.Score)
}

func TestEvaluate_GoodBelowCapKeepsConfidenceScore(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "good", Confidence: 0.72},
	})
	require.NoError(t, err)
	assert.Equal(t, 72, v.Score)
}

func TestEvaluate_BadRoutesToFixWithDisplayScore(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "bad", Confidence: 0.97},
		{Label: "good", Confidence: 0.03},
	})
	require.NoError(t, err)

	assert.False(t, v.Accepted)
	assert.Equal(t, "bad", v.Label)
	assert.Equal(t, 30, v.Score)
	assert.Equal(t, 40, defaultTable().FixCommitScore())
}

func TestEvaluate_UnknownLabelRoutesToFix(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "blurry", Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.False(t, v.Accepted)
}

func TestEvaluate_NoPredictions(t *testing.T) {
	_, err := defaultTable().Evaluate(nil)
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestEvaluate_RoundsConfidence(t *testing.T) {
	v, err := defaultTable().Evaluate([]Prediction{
		{Label: "perfect", Confidence: 0.875},
	})
	require.NoError(t, err)
	assert.Equal(t, 88, v.Score)
}
