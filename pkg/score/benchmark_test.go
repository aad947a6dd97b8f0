package score

import "testing"

func BenchmarkWilsonLowerBound(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = WilsonLowerBound(600, 400, DefaultConfidence)
	}
}

func BenchmarkRank(b *testing.B) {
	batch := make([]Record[int], 100_000)
	for i := range batch {
		batch[i] = Record[int]{Positive: int64(i % 997), Negative: int64(i % 101), Payload: i}
	}
	sc := Scorer{Strategy: StrategyWilson}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Rank(sc, batch); err != nil {
			b.Fatal(err)
		}
	}
}
