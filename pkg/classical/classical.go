// Package classical implements the pseudo-random half of the coin-flip comparison.
package classical

import (
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/aretw0/qflip/pkg/domain"
)

// Source returns a lazy sequence of shots independent draws, each uniformly 0 or 1.
// The sequence is single-use: ranging over it a second time yields nothing.
func Source(r *rand.Rand, shots int) iter.Seq[int] {
	consumed := false
	return func(yield func(int) bool) {
		if consumed {
			return
		}
		consumed = true
		for range shots {
			if !yield(r.IntN(2)) {
				return
			}
		}
	}
}

// Tally counts the draws equal to 1 as heads; everything else out of shots is tails.
// count("0") + count("1") == shots holds for every shots >= 0.
func Tally(draws iter.Seq[int], shots int) domain.Counts {
	heads := 0
	for d := range draws {
		if d == 1 {
			heads++
		}
	}
	return domain.Counts{
		domain.Tails: shots - heads,
		domain.Heads: heads,
	}
}

// Flip simulates shots classical coin flips.
func Flip(r *rand.Rand, shots int) (domain.Counts, error) {
	if shots < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidShots, shots)
	}
	return Tally(Source(r, shots), shots), nil
}

// NewRand returns a generator seeded deterministically from seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
