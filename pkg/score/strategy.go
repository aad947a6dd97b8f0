package score

import (
	"fmt"
	"strings"
)

// Strategy selects how a vote pair is turned into a score.
type Strategy string

const (
	StrategyDifference Strategy = "difference"
	StrategyAverage    Strategy = "average"
	StrategyWilson     Strategy = "wilson"
)

// Strategies lists all supported strategies in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyDifference, StrategyAverage, StrategyWilson}
}

// ParseStrategy resolves a strategy name, case-insensitive. A few short
// aliases are accepted for CLI convenience.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "difference", "diff", "updown":
		return StrategyDifference, nil
	case "average", "avg", "ratio":
		return StrategyAverage, nil
	case "wilson", "wlb", "lowerbound":
		return StrategyWilson, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (valid: %s)", ErrInvalidArgument, s, strategyNames())
	}
}

func (s Strategy) String() string {
	return string(s)
}

func strategyNames() string {
	list := Strategies()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Scorer applies one strategy. A zero Confidence means DefaultConfidence;
// it is ignored by strategies other than StrategyWilson.
type Scorer struct {
	Strategy   Strategy `json:"strategy" yaml:"strategy"`
	Confidence float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// NewScorer returns a validated scorer.
func NewScorer(s Strategy, confidence float64) (Scorer, error) {
	sc := Scorer{Strategy: s, Confidence: confidence}
	if _, err := sc.scoreFunc(); err != nil {
		return Scorer{}, err
	}
	return sc, nil
}

// Score scores a single vote pair.
func (s Scorer) Score(positive, negative int64) (float64, error) {
	fn, err := s.scoreFunc()
	if err != nil {
		return 0, err
	}
	if err := validateVotes(positive, negative); err != nil {
		return 0, err
	}
	return fn(positive, negative), nil
}

func (s Scorer) confidence() float64 {
	if s.Confidence == 0 {
		return DefaultConfidence
	}
	return s.Confidence
}

// scoreFunc resolves the strategy once so that z is not recomputed per record.
func (s Scorer) scoreFunc() (func(positive, negative int64) float64, error) {
	switch s.Strategy {
	case StrategyDifference:
		return difference, nil
	case StrategyAverage:
		return averageRating, nil
	case StrategyWilson:
		z, err := ZScore(s.confidence())
		if err != nil {
			return nil, err
		}
		return func(positive, negative int64) float64 {
			return wilsonLowerBound(positive, negative, z)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q (valid: %s)", ErrInvalidArgument, s.Strategy, strategyNames())
	}
}
