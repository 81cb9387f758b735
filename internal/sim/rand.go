package sim

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the single source of randomness for the simulation. Every
// draw in the generator, tick engine and flow synthesizer goes through
// it so tests can substitute a seeded source.
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// NewRand returns a time-seeded source safe for concurrent use.
func NewRand() Rand {
	return NewSeededRand(time.Now().UnixNano())
}

// NewSeededRand returns a deterministic source for the given seed, safe
// for concurrent use.
func NewSeededRand(seed int64) Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

// Range draws a uniform value in [min, max).
func Range(r Rand, min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// Chance reports true with probability p.
func Chance(r Rand, p float64) bool {
	return r.Float64() < p
}
