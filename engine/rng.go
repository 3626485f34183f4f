package engine

import (
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// Dice is the random source the engine rolls jitter, flee attempts,
// opponent selection and drops with.
type Dice interface {
	// Between returns an integer in [lo, hi].
	Between(lo, hi int64) int64
	// Chance returns true with probability p. p <= 0 never, p >= 1 always.
	Chance(p decimal.Decimal) bool
	// WeightedSelect returns an index chosen by weighted random selection.
	WeightedSelect(weights []int) int
}

// chanceScale is the resolution of Chance rolls.
const chanceScale = 1_000_000_000

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every call, enabling save/restore. Every call
// consumes exactly one value from the source. Safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// next returns a value in [0, n) and advances the position.
func (r *RNG) next(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Int63() % n
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	return int(r.next(int64(sides))) + 1
}

// Between returns a random integer in [lo, hi].
func (r *RNG) Between(lo, hi int64) int64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.next(hi-lo+1)
}

// Chance returns true with probability p.
func (r *RNG) Chance(p decimal.Decimal) bool {
	threshold := p.Mul(decimal.NewFromInt(chanceScale)).Floor().IntPart()
	return r.next(chanceScale) < threshold
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	roll := int(r.next(int64(total)))
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of RNG calls made since creation.
func (r *RNG) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
