package ports

import (
	"context"

	"github.com/aretw0/qflip/pkg/domain"
)

// Renderer draws outcome counts as a chart and saves it.
type Renderer interface {
	// Render writes the chart to path and returns the path actually written.
	Render(ctx context.Context, counts domain.Counts, title, path string) (string, error)
}
