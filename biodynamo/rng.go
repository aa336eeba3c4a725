package biodynamo

import "math/rand"

// NewRNG returns a single seeded source threaded explicitly through the
// engine (triangulation jitter, stochastic walk tie-breaks, randomized
// diffusion order, biological-module noise) — spec.md §5's reproducibility
// requirement rules out the global math/rand functions.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
