package ports

import (
	"context"

	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/domain"
)

// ExecutionGateway runs a circuit on some backend, local or remote.
type ExecutionGateway interface {
	// Name identifies the gateway in logs and run records.
	Name() string

	// Run executes the circuit shots times and returns the measured distribution.
	// Remote implementations may block for as long as the provider queues the job.
	Run(ctx context.Context, c *circuit.Circuit, shots int) (*domain.Execution, error)
}
