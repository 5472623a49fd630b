// Package normalize turns a probability distribution into integer shot counts.
package normalize

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aretw0/qflip/pkg/domain"
)

// Policy selects how fractional shots are resolved.
type Policy string

const (
	// PolicyTruncate floors every bucket. Totals may fall short of the shot count.
	PolicyTruncate Policy = "truncate"
	// PolicyLargestRemainder floors every bucket, then hands the deficit to the
	// buckets with the largest fractional parts.
	PolicyLargestRemainder Policy = "largest-remainder"
)

// ulps is how many units in the last place below an integer p*shots may fall and still count
// as that integer, e.g. 0.4999999999999999 * 1000. Anything further away is floored.
const ulps = 4

// ParsePolicy maps a configuration value to a Policy. The empty string means truncate.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyTruncate:
		return PolicyTruncate, nil
	case PolicyLargestRemainder:
		return PolicyLargestRemainder, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownRounding, s)
	}
}

// Apply normalizes dist with the given policy.
func Apply(p Policy, dist domain.Distribution, shots int) domain.Counts {
	if p == PolicyLargestRemainder {
		return LargestRemainder(dist, shots)
	}
	return Truncate(dist, shots)
}

// Truncate converts each probability to floor(p * shots). A product within a few ulps
// below the next integer is treated as that integer.
func Truncate(dist domain.Distribution, shots int) domain.Counts {
	counts := make(domain.Counts, len(dist))
	for label, p := range dist {
		counts[label] = floor(p * float64(shots))
	}
	return counts
}

func floor(x float64) int {
	n := math.Floor(x)
	if next := n + 1; next-x <= ulps*(math.Nextafter(x, math.Inf(1))-x) {
		n = next
	}
	return int(n)
}

// LargestRemainder is Truncate followed by distributing the missing shots, one each, to the
// buckets with the largest remainders. Ties go to the lower label. At most one shot is added
// per bucket, so a distribution summing well below 1 still undercounts.
func LargestRemainder(dist domain.Distribution, shots int) domain.Counts {
	counts := Truncate(dist, shots)
	deficit := shots - counts.Total()
	if deficit <= 0 {
		return counts
	}

	type remainder struct {
		label string
		frac  float64
	}
	rems := make([]remainder, 0, len(dist))
	for _, label := range dist.Labels() {
		exact := dist[label] * float64(shots)
		rems = append(rems, remainder{label: label, frac: exact - float64(counts[label])})
	}
	slices.SortStableFunc(rems, func(a, b remainder) int {
		switch {
		case a.frac > b.frac:
			return -1
		case a.frac < b.frac:
			return 1
		default:
			return 0
		}
	})

	for i := 0; i < len(rems) && deficit > 0; i++ {
		if rems[i].frac <= 0 {
			break
		}
		counts[rems[i].label]++
		deficit--
	}
	return counts
}
