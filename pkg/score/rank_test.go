package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() []Record[string] {
	return []Record[string]{
		{Positive: 5, Negative: 0, Payload: "A"},
		{Positive: 500, Negative: 50, Payload: "B"},
		{Positive: 1000, Negative: 900, Payload: "C"},
		{Positive: 10, Negative: 0, Payload: "D"},
		{Positive: 40, Negative: 10, Payload: "E"},
	}
}

func payloads[T any](list []Ranked[T]) []T {
	out := make([]T, len(list))
	for i, r := range list {
		out[i] = r.Record.Payload
	}
	return out
}

func TestRank_StrategiesDisagree(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{StrategyDifference, []string{"B", "C", "E", "D", "A"}},
		// A and D tie at 1.0 and keep input order
		{StrategyAverage, []string{"A", "D", "B", "E", "C"}},
		{StrategyWilson, []string{"B", "D", "E", "A", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			batch := sampleBatch()
			list, err := Rank(Scorer{Strategy: tt.strategy}, batch)
			require.NoError(t, err)
			require.Len(t, list, len(batch))
			assert.Equal(t, tt.want, payloads(list))

			for i, r := range list {
				assert.Equal(t, i+1, r.Position)
			}
		})
	}
}

func TestRank_SampleSizeCorrection(t *testing.T) {
	batch := []Record[string]{
		{Positive: 5, Negative: 0, Payload: "A"},
		{Positive: 500, Negative: 50, Payload: "B"},
	}

	avg, err := Rank(Scorer{Strategy: StrategyAverage}, batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, payloads(avg))
	assert.InDelta(t, 0.909, avg[1].Score, 1e-3)

	wlb, err := Rank(Scorer{Strategy: StrategyWilson}, batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, payloads(wlb))
}

func TestRank_StableOnTies(t *testing.T) {
	// big enough to take the parallel path
	batch := make([]Record[int], 3*parallelThreshold)
	for i := range batch {
		batch[i] = Record[int]{Positive: int64(i % 3), Negative: 1, Payload: i}
	}

	for _, s := range Strategies() {
		list, err := Rank(Scorer{Strategy: s}, batch)
		require.NoError(t, err)
		require.Len(t, list, len(batch))

		seen := make(map[int]bool, len(list))
		for i, r := range list {
			seen[r.Record.Payload] = true
			if i == 0 {
				continue
			}
			prev := list[i-1]
			require.GreaterOrEqual(t, prev.Score, r.Score)
			if prev.Score == r.Score {
				require.Less(t, prev.Record.Payload, r.Record.Payload, "strategy %s", s)
			}
		}
		assert.Len(t, seen, len(batch))
	}
}

func TestRank_Empty(t *testing.T) {
	list, err := Rank(Scorer{Strategy: StrategyWilson}, []Record[string]{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRank_InvalidRecord(t *testing.T) {
	batch := sampleBatch()
	batch[3].Negative = -1

	list, err := Rank(Scorer{Strategy: StrategyAverage}, batch)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, list)
}

func TestRank_InvalidRecordParallel(t *testing.T) {
	batch := make([]Record[int], 2*parallelThreshold)
	for i := range batch {
		batch[i] = Record[int]{Positive: 1, Payload: i}
	}
	batch[len(batch)-1].Positive = -3

	_, err := Rank(Scorer{Strategy: StrategyDifference}, batch)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRank_InvalidScorer(t *testing.T) {
	_, err := Rank(Scorer{Strategy: "hot"}, sampleBatch())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Rank(Scorer{Strategy: StrategyWilson, Confidence: 2}, sampleBatch())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	batch := sampleBatch()
	before := append([]Record[string](nil), batch...)

	_, err := Rank(Scorer{Strategy: StrategyWilson}, batch)
	require.NoError(t, err)
	assert.Equal(t, before, batch)
}

func TestTop(t *testing.T) {
	list, err := Rank(Scorer{Strategy: StrategyDifference}, sampleBatch())
	require.NoError(t, err)

	assert.Len(t, Top(list, 2), 2)
	assert.Len(t, Top(list, 0), 5)
	assert.Len(t, Top(list, -1), 5)
	assert.Len(t, Top(list, 50), 5)
	assert.Equal(t, "B", Top(list, 1)[0].Record.Payload)
}

func TestFromTotals(t *testing.T) {
	r, err := FromTotals(7, 10, "review")
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Positive)
	assert.Equal(t, int64(3), r.Negative)
	assert.Equal(t, "review", r.Payload)

	_, err = FromTotals(11, 10, "review")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = FromTotals(-1, 10, "review")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	r, err = FromTotals(math.MaxInt64, math.MaxInt64, "review")
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Negative)
}

func TestRank_VoteTotalOverflow(t *testing.T) {
	records := []Record[string]{
		{Positive: 5, Negative: 0, Payload: "ok"},
		{Positive: math.MaxInt64, Negative: 1, Payload: "overflow"},
	}
	for _, s := range Strategies() {
		_, err := Rank(Scorer{Strategy: s}, records)
		assert.ErrorIs(t, err, ErrInvalidArgument, s.String())
	}
}
