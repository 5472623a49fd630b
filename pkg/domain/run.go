package domain

import "time"

// Fairness summarises how far a set of counts is from a fair coin.
type Fairness struct {
	ChiSquare  float64 `json:"chi_square"`
	PValue     float64 `json:"p_value"`
	HeadsRatio float64 `json:"heads_ratio"`
}

// Run is the record of one classical vs. quantum comparison.
type Run struct {
	ID       string `json:"id"`
	Mode     Mode   `json:"mode"`
	Backend  string `json:"backend"`
	JobID    string `json:"job_id,omitempty"`
	Shots    int    `json:"shots"`
	Rounding string `json:"rounding"`
	Seed     uint64 `json:"seed"`

	Classical         Counts       `json:"classical"`
	Quantum           Counts       `json:"quantum"`
	Distribution      Distribution `json:"distribution"`
	ClassicalFairness Fairness     `json:"classical_fairness"`
	QuantumFairness   Fairness     `json:"quantum_fairness"`

	Artifacts  []string  `json:"artifacts,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time between start and finish.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
