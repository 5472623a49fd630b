package ibm

import "strings"

// Runtime job states as reported by the API.
const (
	StatusQueued    = "Queued"
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
	StatusCancelled = "Cancelled"
)

// BackendStatus is the live state of a device.
type BackendStatus struct {
	Name        string `json:"backend_name"`
	State       bool   `json:"state"`
	Status      string `json:"status"`
	PendingJobs int    `json:"length_queue"`
}

// BackendConfiguration is the static description of a device.
type BackendConfiguration struct {
	Name      string `json:"backend_name"`
	Simulator bool   `json:"simulator"`
	Qubits    int    `json:"n_qubits"`
}

// JobRequest submits a primitive program to a backend.
type JobRequest struct {
	ProgramID string        `json:"program_id"`
	Backend   string        `json:"backend"`
	Hub       string        `json:"hub,omitempty"`
	Group     string        `json:"group,omitempty"`
	Project   string        `json:"project,omitempty"`
	Params    SamplerParams `json:"params"`
}

// SamplerParams are the inputs of the sampler program.
type SamplerParams struct {
	Circuits       []string   `json:"circuits"`
	CircuitIndices []int      `json:"circuit_indices"`
	RunOptions     RunOptions `json:"run_options"`
}

// RunOptions carries per-job execution settings.
type RunOptions struct {
	Shots int `json:"shots"`
}

// JobState holds the detailed status of a job.
type JobState struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Job is the status view of a submitted job.
type Job struct {
	ID      string   `json:"id"`
	Backend string   `json:"backend"`
	Status  string   `json:"status"`
	State   JobState `json:"state"`
}

// Terminal reports whether the job will not change status again.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed:
		return true
	}
	// "Cancelled - Ran too long" and friends
	return strings.HasPrefix(j.Status, StatusCancelled)
}

// SamplerResult is the payload of a completed sampler job.
type SamplerResult struct {
	QuasiDists []map[string]float64 `json:"quasi_dists"`
	Metadata   []map[string]any     `json:"metadata,omitempty"`
}

type loginRequest struct {
	APIToken string `json:"apiToken"`
}

type loginResponse struct {
	ID string `json:"id"`
}

type backendList struct {
	Devices []string `json:"devices"`
}

type jobCreated struct {
	ID string `json:"id"`
}
