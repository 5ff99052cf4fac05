// Package rng provides the random source the generator draws from. Noise
// functions and templates never touch the process-wide source directly; they
// take a Source so that tests can pin a seed and golden fixtures stay
// reproducible.
package rng

import "math/rand"

// Source is the minimal randomness contract the generator needs.
type Source interface {
	// Float64 returns the next pseudo-random float in [0, 1).
	Float64() float64
	// Intn returns a non-negative pseudo-random int in [0, n).
	Intn(n int) int
}

type mathSource struct {
	r *rand.Rand
}

func (s *mathSource) Float64() float64 { return s.r.Float64() }
func (s *mathSource) Intn(n int) int   { return s.r.Intn(n) }

// New returns a Source seeded with the given seed.
func New(seed int64) Source {
	return &mathSource{r: rand.New(rand.NewSource(seed))}
}

// CoinFlip draws a fair boolean from the source.
func CoinFlip(src Source) bool {
	return src.Float64() < 0.5
}

// Digits returns n pseudo-random decimal digits as a string.
func Digits(src Source, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + src.Intn(10))
	}
	return string(buf)
}
