package engine

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source behind every probabilistic decision. Inject a
// scripted implementation to force outcomes in tests.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRand returns a seeded PCG source. It is not safe for concurrent use.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandFromTime seeds from the wall clock.
func NewRandFromTime() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// Clock supplies timestamps for generated messages.
type Clock func() time.Time
