package qflip

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/adapters/plot"
	"github.com/aretw0/qflip/pkg/analysis"
	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/classical"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/normalize"
	"github.com/aretw0/qflip/pkg/ports"
	"github.com/google/uuid"
)

// DefaultOutputDir is where histograms are written unless WithOutputDir says otherwise.
const DefaultOutputDir = "results"

// Experiment runs classical and quantum coin flips side by side.
type Experiment struct {
	gateway   ports.ExecutionGateway
	renderer  ports.Renderer
	store     ports.RunStore
	circuit   *circuit.Circuit
	mode      domain.Mode
	rounding  normalize.Policy
	outputDir string
	perRun    bool
	seed      uint64
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Experiment.
type Option func(*Experiment)

// WithRenderer replaces the default gonum/plot renderer. A nil renderer disables charts.
func WithRenderer(r ports.Renderer) Option {
	return func(e *Experiment) {
		e.renderer = r
	}
}

// WithStore persists every finished run.
func WithStore(s ports.RunStore) Option {
	return func(e *Experiment) {
		e.store = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) {
		e.logger = logger
	}
}

// WithSeed fixes the classical randomness. Zero picks a fresh seed per run.
func WithSeed(seed uint64) Option {
	return func(e *Experiment) {
		e.seed = seed
	}
}

// WithRounding selects the normalization policy for quantum results.
func WithRounding(p normalize.Policy) Option {
	return func(e *Experiment) {
		e.rounding = p
	}
}

// WithOutputDir sets the directory histograms are written to.
func WithOutputDir(dir string) Option {
	return func(e *Experiment) {
		e.outputDir = dir
	}
}

// WithPerRunOutput writes each run's histograms into a subdirectory named after the run ID.
func WithPerRunOutput() Option {
	return func(e *Experiment) {
		e.perRun = true
	}
}

// WithMode labels the quantum half of the run (artifact name, chart title).
func WithMode(m domain.Mode) Option {
	return func(e *Experiment) {
		e.mode = m
	}
}

// WithCircuit replaces the coin-flip circuit.
func WithCircuit(c *circuit.Circuit) Option {
	return func(e *Experiment) {
		e.circuit = c
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Experiment) {
		e.hooks = hooks
	}
}

// New builds an Experiment that runs the quantum half on gateway.
func New(gateway ports.ExecutionGateway, opts ...Option) *Experiment {
	e := &Experiment{
		gateway:   gateway,
		renderer:  plot.NewRenderer(),
		circuit:   circuit.CoinFlip(),
		mode:      domain.ModeSimulator,
		rounding:  normalize.PolicyTruncate,
		outputDir: DefaultOutputDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("backend", gateway.Name(), "mode", e.mode)
	return e
}

// Circuit returns the circuit executed by the quantum stage.
func (e *Experiment) Circuit() *circuit.Circuit { return e.circuit }

// Mode returns the mode the experiment was configured with.
func (e *Experiment) Mode() domain.Mode { return e.mode }

// Store returns the configured run store, or nil.
func (e *Experiment) Store() ports.RunStore { return e.store }

// Run flips both coins shots times and returns the completed record.
func (e *Experiment) Run(ctx context.Context, shots int) (*domain.Run, error) {
	if shots < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidShots, shots)
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		Mode:      e.mode,
		Backend:   e.gateway.Name(),
		Shots:     shots,
		Rounding:  string(e.rounding),
		Seed:      e.seed,
		StartedAt: time.Now().UTC(),
	}
	if run.Seed == 0 {
		run.Seed = rand.Uint64()
	}
	logger := e.logger.With("run_id", run.ID)

	dir := e.outputDir
	if e.perRun {
		dir = filepath.Join(dir, run.ID)
	}
	if e.renderer != nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	if err := e.classicalStage(ctx, run, dir); err != nil {
		return nil, err
	}
	if err := e.quantumStage(ctx, run, dir); err != nil {
		return nil, err
	}

	run.ClassicalFairness = analysis.Fairness(run.Classical)
	run.QuantumFairness = analysis.Fairness(run.Quantum)
	run.FinishedAt = time.Now().UTC()

	if e.store != nil {
		if err := e.store.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
	}

	logger.Info("run complete", "classical", run.Classical.String(), "quantum", run.Quantum.String(), "duration", run.Duration())
	if e.hooks.OnRunComplete != nil {
		e.hooks.OnRunComplete(ctx, run)
	}
	return run, nil
}

func (e *Experiment) classicalStage(ctx context.Context, run *domain.Run, dir string) error {
	start := e.stageStart(ctx, run, domain.StageClassical)

	counts, err := classical.Flip(classical.NewRand(run.Seed), run.Shots)
	var artifact string
	if err == nil {
		run.Classical = counts
		artifact, err = e.render(ctx, counts, domain.ClassicalTitle, filepath.Join(dir, domain.ClassicalArtifact))
	}

	e.stageEnd(ctx, run, domain.StageClassical, start, "", counts, artifact, err)
	if err != nil {
		return fmt.Errorf("classical stage failed: %w", err)
	}
	return nil
}

func (e *Experiment) quantumStage(ctx context.Context, run *domain.Run, dir string) error {
	start := e.stageStart(ctx, run, domain.StageQuantum)

	exec, err := e.gateway.Run(ctx, e.circuit, run.Shots)
	var (
		counts   domain.Counts
		artifact string
		backend  string
	)
	if err == nil {
		backend = exec.Backend
		if backend != "" {
			run.Backend = backend
		}
		run.JobID = exec.JobID
		run.Distribution = exec.Distribution
		e.logger.Debug("quantum distribution", "run_id", run.ID, "labels", len(exec.Distribution), "probability_mass", exec.Distribution.Sum())
		counts = normalize.Apply(e.rounding, exec.Distribution, run.Shots).Fill(domain.BinaryLabels(e.circuit.Clbits)...)
		run.Quantum = counts
		artifact, err = e.render(ctx, counts, e.mode.Title(), filepath.Join(dir, e.mode.Artifact()))
	}

	e.stageEnd(ctx, run, domain.StageQuantum, start, backend, counts, artifact, err)
	if err != nil {
		return fmt.Errorf("quantum stage failed: %w", err)
	}
	return nil
}

func (e *Experiment) render(ctx context.Context, counts domain.Counts, title, path string) (string, error) {
	if e.renderer == nil {
		return "", nil
	}
	return e.renderer.Render(ctx, counts, title, path)
}

func (e *Experiment) stageStart(ctx context.Context, run *domain.Run, stage domain.Stage) time.Time {
	now := time.Now()
	if e.hooks.OnStageStart != nil {
		e.hooks.OnStageStart(ctx, &domain.StageEvent{
			Timestamp: now,
			RunID:     run.ID,
			Stage:     stage,
			Mode:      run.Mode,
			Shots:     run.Shots,
		})
	}
	return now
}

func (e *Experiment) stageEnd(ctx context.Context, run *domain.Run, stage domain.Stage, start time.Time, backend string, counts domain.Counts, artifact string, err error) {
	if artifact != "" {
		run.Artifacts = append(run.Artifacts, artifact)
	}
	if e.hooks.OnStageEnd == nil {
		return
	}
	now := time.Now()
	e.hooks.OnStageEnd(ctx, &domain.StageEvent{
		Timestamp: now,
		RunID:     run.ID,
		Stage:     stage,
		Mode:      run.Mode,
		Shots:     run.Shots,
		Backend:   backend,
		Counts:    counts,
		Artifact:  artifact,
		Duration:  now.Sub(start),
		Err:       err,
	})
}
