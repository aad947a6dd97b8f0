package score

import (
	"cmp"
	"fmt"
	"slices"
)

// DefaultSegmentWeights weight the age quartiles of a product's ratings,
// most recent quartile first.
var DefaultSegmentWeights = []float64{0.28, 0.26, 0.24, 0.22}

// TimedRating is a star rating and how many days ago it was given.
type TimedRating struct {
	Stars   float64 `json:"stars" yaml:"stars"`
	AgeDays int64   `json:"age_days" yaml:"ageDays"`
}

// AverageStars returns the plain mean of the ratings, or 0 when there are none.
func AverageStars(ratings []TimedRating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Stars
	}
	return sum / float64(len(ratings))
}

// TimeWeightedRating splits ratings into len(weights) age quantile segments,
// youngest first, and returns the weighted sum of the segment means. Ratings
// of equal age always share a segment. Segments left empty (fewer ratings or
// distinct ages than weights) are skipped and the remaining weights
// renormalized.
func TimeWeightedRating(ratings []TimedRating, weights []float64) (float64, error) {
	if len(weights) == 0 {
		weights = DefaultSegmentWeights
	}

	var weightSum float64
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("%w: segment weight %d is negative (%v)", ErrInvalidArgument, i, w)
		}
		weightSum += w
	}
	if weightSum == 0 {
		return 0, fmt.Errorf("%w: segment weights sum to zero", ErrInvalidArgument)
	}

	if len(ratings) == 0 {
		return 0, nil
	}

	sorted := slices.Clone(ratings)
	slices.SortStableFunc(sorted, func(a, b TimedRating) int {
		return cmp.Compare(a.AgeDays, b.AgeDays)
	})

	var total, used float64
	n, k := len(sorted), len(weights)
	start := 0
	for i, w := range weights {
		end := segmentEnd(sorted, start, (i+1)*n/k)
		segment := sorted[start:end]
		start = end
		if len(segment) == 0 {
			continue
		}
		total += AverageStars(segment) * w
		used += w
	}

	if used == 0 {
		return 0, nil
	}
	return total / used, nil
}

// segmentEnd moves the cut forward so ratings of the same age never straddle
// two segments.
func segmentEnd(sorted []TimedRating, start, cut int) int {
	end := max(cut, start)
	for end > start && end < len(sorted) && sorted[end].AgeDays == sorted[end-1].AgeDays {
		end++
	}
	return end
}
