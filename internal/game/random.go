// Package game implements the quiz rules: question shuffling and preparation
// and the state transition engine.
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Shuffle returns a uniformly random permutation of xs using Fisher-Yates.
// The input is never modified.
func Shuffle[T any](rng *rand.Rand, xs []T) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NewRand returns a generator seeded from crypto/rand, falling back to the
// clock if the system source is unavailable.
func NewRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
