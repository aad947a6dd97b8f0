package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input string
		want  Strategy
	}{
		{"difference", StrategyDifference},
		{"diff", StrategyDifference},
		{"average", StrategyAverage},
		{"AVG", StrategyAverage},
		{"wilson", StrategyWilson},
		{"  Wilson ", StrategyWilson},
		{"wlb", StrategyWilson},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStrategy_Unknown(t *testing.T) {
	_, err := ParseStrategy("hot")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "wilson")
}

func TestNewScorer(t *testing.T) {
	sc, err := NewScorer(StrategyWilson, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 0.9, sc.Confidence)

	_, err = NewScorer(StrategyWilson, 1.2)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewScorer("bogus", DefaultConfidence)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// confidence only matters for wilson
	_, err = NewScorer(StrategyAverage, 1.2)
	assert.NoError(t, err)
}

func TestScorer_DefaultConfidence(t *testing.T) {
	got, err := Scorer{Strategy: StrategyWilson}.Score(1, 0)
	require.NoError(t, err)

	want, err := WilsonLowerBound(1, 0, DefaultConfidence)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestScorer_MatchesFunctions(t *testing.T) {
	d, err := Scorer{Strategy: StrategyDifference}.Score(7, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)

	a, err := Scorer{Strategy: StrategyAverage}.Score(7, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.7, a)

	_, err = Scorer{Strategy: StrategyAverage}.Score(-7, 3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
