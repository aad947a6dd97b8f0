package score

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// parallelThreshold is the batch size below which scoring stays on the
// calling goroutine.
const parallelThreshold = 512

// Record is one rateable item. Payload is carried through ranking untouched.
type Record[T any] struct {
	Positive int64 `json:"positive" yaml:"positive"`
	Negative int64 `json:"negative" yaml:"negative"`
	Payload  T     `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// FromTotals builds a record when only the positive and total counts are known.
func FromTotals[T any](positive, total int64, payload T) (Record[T], error) {
	if positive < 0 || total < 0 {
		return Record[T]{}, fmt.Errorf("%w: vote counts must be non-negative (positive: %d, total: %d)",
			ErrInvalidArgument, positive, total)
	}
	if total < positive {
		return Record[T]{}, fmt.Errorf("%w: total votes (%d) less than positive votes (%d)",
			ErrInvalidArgument, total, positive)
	}
	rec := Record[T]{
		Positive: positive,
		Negative: total - positive,
		Payload:  payload,
	}
	if err := validateVotes(rec.Positive, rec.Negative); err != nil {
		return Record[T]{}, err
	}
	return rec, nil
}

// Ranked is a record with its score and 1-based position in the list.
type Ranked[T any] struct {
	Position int       `json:"position" yaml:"position"`
	Score    float64   `json:"score" yaml:"score"`
	Record   Record[T] `json:"record" yaml:"record"`
}

// Rank scores every record with s and returns them ordered by descending
// score. Records with equal scores keep their input order. Any invalid
// record fails the whole pass and no list is returned.
func Rank[T any](s Scorer, records []Record[T]) ([]Ranked[T], error) {
	fn, err := s.scoreFunc()
	if err != nil {
		return nil, err
	}

	list := make([]Ranked[T], len(records))
	scoreRange := func(start, end int) error {
		for i := start; i < end; i++ {
			r := records[i]
			if err := validateVotes(r.Positive, r.Negative); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			list[i] = Ranked[T]{Score: fn(r.Positive, r.Negative), Record: r}
		}
		return nil
	}

	if len(records) < parallelThreshold {
		if err := scoreRange(0, len(records)); err != nil {
			return nil, err
		}
	} else {
		workers := runtime.GOMAXPROCS(0)
		chunk := (len(records) + workers - 1) / workers

		var g errgroup.Group
		g.SetLimit(workers)
		for start := 0; start < len(records); start += chunk {
			end := min(start+chunk, len(records))
			g.Go(func() error {
				return scoreRange(start, end)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(list, func(a, b Ranked[T]) int {
		return cmp.Compare(b.Score, a.Score)
	})

	for i := range list {
		list[i].Position = i + 1
	}

	return list, nil
}

// Top returns the first n items of list. Non-positive n returns the whole list.
func Top[T any](list []Ranked[T], n int) []Ranked[T] {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}
