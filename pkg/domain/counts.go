package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Outcome labels for a single classical bit.
const (
	Tails = "0"
	Heads = "1"
)

// Counts maps an outcome label to the number of shots that produced it.
type Counts map[string]int

// Total returns the sum of all buckets.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Labels returns the labels in ascending order.
func (c Counts) Labels() []string {
	labels := make([]string, 0, len(c))
	for l := range c {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Fill returns a copy of c where every given label is present, defaulting to zero.
func (c Counts) Fill(labels ...string) Counts {
	out := make(Counts, len(c)+len(labels))
	for l, n := range c {
		out[l] = n
	}
	for _, l := range labels {
		if _, ok := out[l]; !ok {
			out[l] = 0
		}
	}
	return out
}

// String formats the counts the way they are printed on the console: {'0': 498, '1': 502}.
func (c Counts) String() string {
	parts := make([]string, 0, len(c))
	for _, l := range c.Labels() {
		parts = append(parts, fmt.Sprintf("'%s': %d", l, c[l]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// BinaryLabels returns every bitstring of the given width in ascending order.
// A width of 1 yields ["0", "1"].
func BinaryLabels(width int) []string {
	if width <= 0 {
		return nil
	}
	n := 1 << width
	labels := make([]string, n)
	for i := range n {
		labels[i] = fmt.Sprintf("%0*b", width, i)
	}
	return labels
}
