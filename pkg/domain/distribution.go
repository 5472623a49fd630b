package domain

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Distribution maps an outcome label to its (quasi-)probability.
// It is produced by an execution backend and treated as opaque by the normalizer.
type Distribution map[string]float64

// Labels returns the labels in ascending order.
func (d Distribution) Labels() []string {
	return slices.Sorted(maps.Keys(d))
}

// Sum returns the total probability mass, accumulated in label order.
func (d Distribution) Sum() float64 {
	labels := d.Labels()
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = d[l]
	}
	return floats.Sum(values)
}

// Execution is the result of running a circuit on a backend.
type Execution struct {
	Backend      string       `json:"backend"`
	JobID        string       `json:"job_id,omitempty"`
	Shots        int          `json:"shots"`
	Distribution Distribution `json:"distribution"`
}
