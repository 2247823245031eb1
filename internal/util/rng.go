package util

import "math/rand"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Derive returns the seed of the i-th run in a batch started from base.
// It depends only on i so a batch is reproducible whatever worker picks the run.
func Derive(base int64, i int) int64 {
	return base + int64(i)*7919
}

// WeightedChoice draws an index with probability proportional to its weight.
// Non-positive weights are never drawn. It returns -1 when no weight is positive.
func WeightedChoice(rng *rand.Rand, weights []float64) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	// float rounding can leave r marginally above the final bucket
	return last
}
