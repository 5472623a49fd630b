package ports

import (
	"context"

	"github.com/aretw0/qflip/pkg/domain"
)

// RunStore persists run records.
type RunStore interface {
	// Save persists the run under run.ID.
	Save(ctx context.Context, run *domain.Run) error

	// Load retrieves a run by ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*domain.Run, error)

	// List returns the IDs of all stored runs, oldest first.
	List(ctx context.Context) ([]string, error)

	// Delete removes a run. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
