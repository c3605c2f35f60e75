// Package random supplies the randomness for board generation and bot moves.
// Password salts use crypto/rand directly.
package random

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

// Random draws bounded integers
type Random interface {
	// Intn returns a value in [0, n), or 0 when n <= 0
	Intn(n int) int
}

// Source is a goroutine-safe Random over a math/rand/v2 generator
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a ChaCha8 source seeded from the operating system
func New() *Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return &Source{rng: rand.New(rand.NewChaCha8(seed))}
}

// NewSeeded returns a reproducible PCG source. The same seed and call order
// always yield the same boards.
func NewSeeded(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn implements Random
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
