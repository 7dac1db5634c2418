// Package random builds the seeded sources used for sampling and shuffling.
package random

import (
	"math/rand/v2"
	"time"
)

// New returns a PCG-backed source for seed along with the seed it used.
// Seed 0 picks a clock-derived seed, so the returned value can be logged
// and replayed.
func New(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed))), seed
}

// OrNew returns rng, or a clock-seeded source when rng is nil.
func OrNew(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	r, _ := New(0)
	return r
}
