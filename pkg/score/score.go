// Package score converts up/down vote counts into comparable ranking scores.
package score

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the confidence level used by the Wilson lower bound
// when none is supplied.
const DefaultConfidence = 0.95

// ErrInvalidArgument is returned for negative or overflowing vote counts,
// out of range confidence levels and unknown strategies.
var ErrInvalidArgument = errors.New("invalid argument")

// Difference returns positive minus negative votes.
// It ignores sample size: (1000, 900) and (200, 100) score the same.
func Difference(positive, negative int64) (float64, error) {
	if err := validateVotes(positive, negative); err != nil {
		return 0, err
	}
	return difference(positive, negative), nil
}

// AverageRating returns the share of positive votes in [0, 1], or 0 when
// there are no votes at all. (1, 0) and (1000, 0) both score 1.
func AverageRating(positive, negative int64) (float64, error) {
	if err := validateVotes(positive, negative); err != nil {
		return 0, err
	}
	return averageRating(positive, negative), nil
}

// WilsonLowerBound returns the lower bound of the Wilson score interval for
// the proportion of positive votes at the given two-sided confidence level.
// Items without votes score 0.
func WilsonLowerBound(positive, negative int64, confidence float64) (float64, error) {
	if err := validateVotes(positive, negative); err != nil {
		return 0, err
	}
	z, err := ZScore(confidence)
	if err != nil {
		return 0, err
	}
	return wilsonLowerBound(positive, negative, z), nil
}

// ZScore returns the two-sided standard normal quantile for confidence,
// e.g. 1.959964 for 0.95.
func ZScore(confidence float64) (float64, error) {
	if err := validateConfidence(confidence); err != nil {
		return 0, err
	}
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2), nil
}

func difference(positive, negative int64) float64 {
	return float64(positive - negative)
}

func averageRating(positive, negative int64) float64 {
	n := positive + negative
	if n == 0 {
		return 0
	}
	return float64(positive) / float64(n)
}

func wilsonLowerBound(positive, negative int64, z float64) float64 {
	total := positive + negative
	if total == 0 {
		return 0
	}

	n := float64(total)
	phat := float64(positive) / n
	z2 := z * z

	lb := (phat + z2/(2*n) - z*math.Sqrt((phat*(1-phat)+z2/(4*n))/n)) / (1 + z2/n)

	// rounding can leave the all-negative case a hair below zero
	return min(max(lb, 0), 1)
}

func validateVotes(positive, negative int64) error {
	if positive < 0 || negative < 0 {
		return fmt.Errorf("%w: vote counts must be non-negative (positive: %d, negative: %d)",
			ErrInvalidArgument, positive, negative)
	}
	if positive > math.MaxInt64-negative {
		return fmt.Errorf("%w: vote total overflows int64 (positive: %d, negative: %d)",
			ErrInvalidArgument, positive, negative)
	}
	return nil
}

func validateConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrInvalidArgument, confidence)
	}
	return nil
}
