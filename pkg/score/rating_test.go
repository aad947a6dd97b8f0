package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageStars(t *testing.T) {
	assert.Equal(t, 0.0, AverageStars(nil))
	assert.Equal(t, 4.0, AverageStars([]TimedRating{{Stars: 5}, {Stars: 3}}))
}

func TestTimeWeightedRating(t *testing.T) {
	// one rating per quartile, youngest rated highest
	ratings := []TimedRating{
		{Stars: 2, AgeDays: 400},
		{Stars: 5, AgeDays: 10},
		{Stars: 3, AgeDays: 300},
		{Stars: 4, AgeDays: 100},
	}

	got, err := TimeWeightedRating(ratings, nil)
	require.NoError(t, err)

	want := 5*0.28 + 4*0.26 + 3*0.24 + 2*0.22
	assert.InDelta(t, want, got, 1e-9)
	assert.Greater(t, got, AverageStars(ratings))
}

func TestTimeWeightedRating_SegmentMeans(t *testing.T) {
	ratings := make([]TimedRating, 0, 8)
	for i := 0; i < 8; i++ {
		ratings = append(ratings, TimedRating{Stars: float64(i%2 + 4), AgeDays: int64(i)})
	}

	// every segment averages 4.5
	got, err := TimeWeightedRating(ratings, []float64{28, 26, 24, 22})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got, 1e-9)
}

func TestTimeWeightedRating_EqualAgesShareSegment(t *testing.T) {
	ratings := []TimedRating{
		{Stars: 5, AgeDays: 1},
		{Stars: 5, AgeDays: 1},
		{Stars: 2, AgeDays: 1},
		{Stars: 4, AgeDays: 2},
		{Stars: 3, AgeDays: 3},
		{Stars: 3, AgeDays: 4},
		{Stars: 1, AgeDays: 5},
		{Stars: 1, AgeDays: 6},
	}

	// segments by age: {1,1,1} {2} {3,4} {5,6}
	got, err := TimeWeightedRating(ratings, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4*0.28+4*0.26+3*0.24+1*0.22, got, 1e-9)
}

func TestTimeWeightedRating_SingleAge(t *testing.T) {
	ratings := []TimedRating{
		{Stars: 5, AgeDays: 7},
		{Stars: 4, AgeDays: 7},
		{Stars: 3, AgeDays: 7},
		{Stars: 2, AgeDays: 7},
	}

	// one segment holds everything, so the result is the plain mean
	got, err := TimeWeightedRating(ratings, nil)
	require.NoError(t, err)
	assert.InDelta(t, AverageStars(ratings), got, 1e-9)
}

func TestTimeWeightedRating_FewerRatingsThanSegments(t *testing.T) {
	got, err := TimeWeightedRating([]TimedRating{{Stars: 4, AgeDays: 3}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-9)
}

func TestTimeWeightedRating_Empty(t *testing.T) {
	got, err := TimeWeightedRating(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestTimeWeightedRating_InvalidWeights(t *testing.T) {
	ratings := []TimedRating{{Stars: 4, AgeDays: 3}}

	_, err := TimeWeightedRating(ratings, []float64{0.5, -0.5})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = TimeWeightedRating(ratings, []float64{0, 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTimeWeightedRating_DoesNotReorderInput(t *testing.T) {
	ratings := []TimedRating{{Stars: 1, AgeDays: 9}, {Stars: 5, AgeDays: 1}}
	_, err := TimeWeightedRating(ratings, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), ratings[0].AgeDays)
}
