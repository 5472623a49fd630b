package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/qflip"
	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/internal/logging"
	httpAdapter "github.com/aretw0/qflip/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/qflip/pkg/adapters/mcp"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/observability"
	"github.com/aretw0/qflip/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxServedShots caps the shot count of a single remote request.
const MaxServedShots = 100000

// Service bundles what the long-running commands share.
type Service struct {
	Experiment *qflip.Experiment
	Store      ports.RunStore
	Close      func() error
}

// newService builds a non-interactive experiment: tokens only come from the environment.
// Each served run writes its histograms under <output-dir>/<run id>.
func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*Service, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw := NewGateway(cfg, NewCredentials(nil, nil), logger, nil)
	exp, err := NewExperiment(cfg, gw, store, logger, domain.ChainHooks(observability.LogHooks(logger), hooks),
		qflip.WithPerRunOutput(),
	)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	return &Service{Experiment: exp, Store: store, Close: closeStore}, nil
}

// NewAPIHandler builds the HTTP API with its own metrics registry.
func NewAPIHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (http.Handler, *Service, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	streams := httpAdapter.NewStreamManager()
	svc, err := newService(ctx, cfg, logger, domain.ChainHooks(metrics.Hooks(), streams.Hooks()))
	if err != nil {
		return nil, nil, err
	}

	handler := httpAdapter.NewHandler(svc.Experiment, svc.Store,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		httpAdapter.WithMaxShots(MaxServedShots),
		httpAdapter.WithLogger(logger),
	)
	return handler, svc, nil
}

// NewMCPServer builds the MCP server.
func NewMCPServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mcpAdapter.Server, *Service, error) {
	svc, err := newService(ctx, cfg, logger, domain.LifecycleHooks{})
	if err != nil {
		return nil, nil, err
	}
	srv := mcpAdapter.NewServer(svc.Experiment, svc.Store,
		mcpAdapter.WithCircuit(svc.Experiment.Circuit()),
		mcpAdapter.WithMaxShots(MaxServedShots),
		mcpAdapter.WithLogger(logger),
	)
	return srv, svc, nil
}
