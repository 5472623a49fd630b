package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/qflip/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one log line per stage boundary.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_start",
				"run_id", e.RunID,
				"stage", e.Stage,
				"mode", e.Mode,
				"shots", e.Shots,
			)
		},
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "stage_failed",
					"run_id", e.RunID,
					"stage", e.Stage,
					"error", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "stage_end",
				"run_id", e.RunID,
				"stage", e.Stage,
				"backend", e.Backend,
				"counts", e.Counts.String(),
				"artifact", e.Artifact,
				"duration", e.Duration,
			)
		},
		OnRunComplete: func(ctx context.Context, r *domain.Run) {
			logger.InfoContext(ctx, "run_complete",
				"run_id", r.ID,
				"mode", r.Mode,
				"backend", r.Backend,
				"duration", r.Duration(),
			)
		},
	}
}
