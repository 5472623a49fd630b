package observability

import (
	"context"
	"errors"

	"github.com/aretw0/qflip/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by run lifecycle hooks.
type Metrics struct {
	Flips         *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Flips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qflip_flips_total",
				Help: "Number of coin flips by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qflip_stage_duration_seconds",
				Help:    "Duration of run stages",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage", "mode"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qflip_runs_total",
				Help: "Number of finished runs by mode and status",
			},
			[]string{"mode", "status"},
		),
	}

	var err error
	if m.Flips, err = register(reg, m.Flips); err != nil {
		return nil, err
	}
	if m.StageDuration, err = register(reg, m.StageDuration); err != nil {
		return nil, err
	}
	if m.Runs, err = register(reg, m.Runs); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record stage outcomes.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			m.StageDuration.WithLabelValues(string(e.Stage), string(e.Mode)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.Runs.WithLabelValues(string(e.Mode), "error").Inc()
				return
			}
			for outcome, n := range e.Counts {
				m.Flips.WithLabelValues(string(e.Stage), outcome).Add(float64(n))
			}
		},
		OnRunComplete: func(ctx context.Context, r *domain.Run) {
			m.Runs.WithLabelValues(string(r.Mode), "ok").Inc()
		},
	}
}
