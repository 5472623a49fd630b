package domain

import "errors"

// ErrInvalidShots is returned when a shot count is negative.
var ErrInvalidShots = errors.New("invalid shot count")

// ErrMissingCredential is returned when remote execution is requested without an API token.
var ErrMissingCredential = errors.New("API token is required for real device runs")

// ErrNoOperationalBackend is returned when no remote device is available to run a circuit.
var ErrNoOperationalBackend = errors.New("no operational backend available")

// ErrJobFailed is returned when a remote job ends in a failed or cancelled state.
var ErrJobFailed = errors.New("remote job failed")

// ErrUnknownRounding is returned when a rounding policy name is not recognised.
var ErrUnknownRounding = errors.New("unknown rounding policy")

// ErrUnknownStore is returned when a run store driver name is not recognised.
var ErrUnknownStore = errors.New("unknown run store")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")
