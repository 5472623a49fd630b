package domain

import (
	"context"
	"time"
)

// Stage identifies a step of a run.
type Stage string

const (
	StageClassical Stage = "classical"
	StageQuantum   Stage = "quantum"
)

// StageEvent describes the start or the end of a stage.
// Counts, Backend, Artifact, Duration and Err are only set on end events.
type StageEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	Stage     Stage         `json:"stage"`
	Mode      Mode          `json:"mode"`
	Shots     int           `json:"shots"`
	Backend   string        `json:"backend,omitempty"`
	Counts    Counts        `json:"counts,omitempty"`
	Artifact  string        `json:"artifact,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnStageStart  func(context.Context, *StageEvent)
	OnStageEnd    func(context.Context, *StageEvent)
	OnRunComplete func(context.Context, *Run)
}

// ChainHooks returns hooks that invoke each given set in order.
func ChainHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *StageEvent) {
			for _, h := range all {
				if h.OnStageStart != nil {
					h.OnStageStart(ctx, e)
				}
			}
		},
		OnStageEnd: func(ctx context.Context, e *StageEvent) {
			for _, h := range all {
				if h.OnStageEnd != nil {
					h.OnStageEnd(ctx, e)
				}
			}
		},
		OnRunComplete: func(ctx context.Context, r *Run) {
			for _, h := range all {
				if h.OnRunComplete != nil {
					h.OnRunComplete(ctx, r)
				}
			}
		},
	}
}
