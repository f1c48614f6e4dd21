package search

import (
	"iter"
	"math/rand/v2"
)

// ReservoirSample draws up to k items uniformly at random from seq in a
// single pass, without knowing its length in advance. When maxConsidered is
// positive, iteration stops after that many items; the sample is then
// uniform over the considered prefix only, which trades exactness for a
// bounded scan on very large stores. rng may be nil to use the shared
// global source.
func ReservoirSample[T any](rng *rand.Rand, seq iter.Seq[T], k, maxConsidered int) []T {
	if k <= 0 {
		return nil
	}
	intn := rand.IntN
	if rng != nil {
		intn = rng.IntN
	}

	reservoir := make([]T, 0, k)
	i := 0
	for item := range seq {
		if maxConsidered > 0 && i >= maxConsidered {
			break
		}
		if i < k {
			reservoir = append(reservoir, item)
		} else if j := intn(i + 1); j < k {
			reservoir[j] = item
		}
		i++
	}
	return reservoir
}
