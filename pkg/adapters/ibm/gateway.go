// Package ibm runs circuits on IBM Quantum hardware through the runtime REST API.
package ibm

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports"
)

// GatewayName identifies the gateway before a device has been selected.
const GatewayName = "ibm_quantum"

// Gateway implements ports.ExecutionGateway on remote devices.
// Every failure propagates; nothing is retried.
type Gateway struct {
	client       *Client
	creds        ports.CredentialProvider
	backend      string
	instance     string
	pollInterval time.Duration
	onSelect     func(backend string)
	logger       *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClient replaces the default REST client.
func WithClient(c *Client) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// WithBackend pins a device and skips least-busy selection.
func WithBackend(name string) Option {
	return func(g *Gateway) {
		g.backend = name
	}
}

// WithInstance sets the "hub/group/project" the job is billed to.
func WithInstance(instance string) Option {
	return func(g *Gateway) {
		g.instance = instance
	}
}

// WithPollInterval sets how often job status is checked.
func WithPollInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithBackendSelected registers a callback fired once the target device is known,
// before the job is submitted.
func WithBackendSelected(fn func(backend string)) Option {
	return func(g *Gateway) {
		g.onSelect = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a hardware gateway. The credential provider is consulted on every Run,
// before any network call.
func New(creds ports.CredentialProvider, opts ...Option) *Gateway {
	g := &Gateway{
		client:       NewClient(),
		creds:        creds,
		pollInterval: 2 * time.Second,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements ports.ExecutionGateway.
func (g *Gateway) Name() string { return GatewayName }

// Run implements ports.ExecutionGateway.
func (g *Gateway) Run(ctx context.Context, c *circuit.Circuit, shots int) (*domain.Execution, error) {
	if shots < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidShots, shots)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}

	token, err := g.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	session, err := g.client.Login(ctx, token)
	if err != nil {
		return nil, err
	}

	backend := g.backend
	if backend == "" {
		if backend, err = g.leastBusy(ctx, session); err != nil {
			return nil, err
		}
	}
	g.logger.Info("Running on real device", "backend", backend)
	if g.onSelect != nil {
		g.onSelect(backend)
	}

	req := JobRequest{
		ProgramID: "sampler",
		Backend:   backend,
		Params: SamplerParams{
			Circuits:       []string{c.QASM3()},
			CircuitIndices: []int{0},
			RunOptions:     RunOptions{Shots: shots},
		},
	}
	req.Hub, req.Group, req.Project = splitInstance(g.instance)

	jobID, err := session.SubmitJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	g.logger.Info("Job submitted", "job_id", jobID, "backend", backend, "shots", shots)

	job, err := g.wait(ctx, session, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: job %s ended %s: %s", domain.ErrJobFailed, jobID, job.Status, job.State.Reason)
	}

	res, err := session.JobResults(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job results: %w", err)
	}
	if len(res.QuasiDists) == 0 {
		return nil, fmt.Errorf("%w: job %s returned no distributions", domain.ErrJobFailed, jobID)
	}
	dist, err := toDistribution(res.QuasiDists[0], c.Clbits)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	return &domain.Execution{
		Backend:      backend,
		JobID:        jobID,
		Shots:        shots,
		Distribution: dist,
	}, nil
}

// leastBusy returns the operational, non-simulator device with the shortest queue.
func (g *Gateway) leastBusy(ctx context.Context, session *Session) (string, error) {
	names, err := session.Backends(ctx)
	if err != nil {
		return "", fmt.Errorf("list backends: %w", err)
	}

	best, bestQueue := "", -1
	for _, name := range names {
		status, err := session.BackendStatus(ctx, name)
		if err != nil {
			return "", fmt.Errorf("backend %s status: %w", name, err)
		}
		if !status.State {
			continue
		}
		conf, err := session.BackendConfiguration(ctx, name)
		if err != nil {
			return "", fmt.Errorf("backend %s configuration: %w", name, err)
		}
		if conf.Simulator {
			continue
		}
		if bestQueue < 0 || status.PendingJobs < bestQueue {
			best, bestQueue = name, status.PendingJobs
		}
	}

	if best == "" {
		return "", domain.ErrNoOperationalBackend
	}
	g.logger.Debug("Selected least busy backend", "backend", best, "pending_jobs", bestQueue)
	return best, nil
}

// wait polls the job until it reaches a terminal status or ctx is done.
func (g *Gateway) wait(ctx context.Context, session *Session, jobID string) (*Job, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		job, err := session.Job(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("job %s status: %w", jobID, err)
		}
		if job.Terminal() {
			return job, nil
		}
		g.logger.Debug("Waiting for job", "job_id", jobID, "status", job.Status)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func splitInstance(instance string) (hub, group, project string) {
	parts := strings.SplitN(instance, "/", 3)
	if len(parts) != 3 {
		return "", "", ""
	}
	return parts[0], parts[1], parts[2]
}

// toDistribution converts quasi-distribution keys to bitstrings of the given width.
// Keys may already be bitstrings, or integers in decimal or 0x-prefixed hex.
func toDistribution(quasi map[string]float64, width int) (domain.Distribution, error) {
	dist := make(domain.Distribution, len(quasi))
	for key, p := range quasi {
		label, err := bitstring(key, width)
		if err != nil {
			return nil, err
		}
		dist[label] += p
	}
	return dist, nil
}

func bitstring(key string, width int) (string, error) {
	if len(key) == width && strings.Trim(key, "01") == "" {
		return key, nil
	}

	var (
		v   uint64
		err error
	)
	if hex, ok := strings.CutPrefix(key, "0x"); ok {
		v, err = strconv.ParseUint(hex, 16, 64)
	} else {
		v, err = strconv.ParseUint(key, 10, 64)
	}
	if err != nil {
		return "", fmt.Errorf("invalid outcome key %q: %w", key, err)
	}
	if width < 64 && v >= 1<<width {
		return "", fmt.Errorf("outcome key %q does not fit %d classical bits", key, width)
	}
	return fmt.Sprintf("%0*b", width, v), nil
}
