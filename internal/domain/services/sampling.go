package services

import (
	"math/rand/v2"
)

// SampleIndexes picks k of the indexes 0..n-1 in ascending order using
// selection sampling (Knuth, Algorithm S). The same seed always yields the
// same subset. k <= 0 or k >= n selects everything.
func SampleIndexes(n, k int, seed uint64) []int {
	if n <= 0 {
		return nil
	}
	if k <= 0 || k >= n {
		return FirstIndexes(n, n)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	picked := make([]int, 0, k)
	for i := 0; i < n && len(picked) < k; i++ {
		need := k - len(picked)
		left := n - i
		if rng.IntN(left) < need {
			picked = append(picked, i)
		}
	}
	return picked
}

// FirstIndexes returns 0..min(n, k)-1. k <= 0 selects everything.
func FirstIndexes(n, k int) []int {
	if k <= 0 || k > n {
		k = n
	}
	out := make([]int, k)
	for i := range out {
		out[i] = i
	}
	return out
}
