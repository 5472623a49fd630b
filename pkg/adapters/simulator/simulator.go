// Package simulator runs circuits on a local statevector simulator.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/domain"
)

// BackendName is reported on every execution.
const BackendName = "statevector_simulator"

// Gateway implements ports.ExecutionGateway without leaving the process.
// Safe for concurrent use.
type Gateway struct {
	mu     sync.Mutex
	rng    *rand.Rand
	exact  bool
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Gateway) {
		g.rng = rand.New(rand.NewPCG(seed, ^seed))
	}
}

// WithExact reports exact Born-rule probabilities instead of sampling shots.
func WithExact() Option {
	return func(g *Gateway) {
		g.exact = true
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New creates a simulator gateway. Without WithSeed it samples from a randomly seeded source.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements ports.ExecutionGateway.
func (g *Gateway) Name() string { return BackendName }

// Run implements ports.ExecutionGateway. Measurements are deferred to the end of the
// circuit; gates after a measurement act on the unmeasured state.
func (g *Gateway) Run(ctx context.Context, c *circuit.Circuit, shots int) (*domain.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if shots < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidShots, shots)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}

	sv := newStateVector(c.Qubits)
	var measures []circuit.Op
	for _, op := range c.Ops {
		if op.Kind == circuit.KindMeasure {
			measures = append(measures, op)
			continue
		}
		if err := sv.apply(op); err != nil {
			return nil, err
		}
	}

	// fold basis-state probabilities onto classical bitstrings
	exact := make(map[string]float64)
	probs := sv.probabilities()
	for idx, p := range probs {
		if p == 0 {
			continue
		}
		exact[readout(idx, measures, c.Clbits)] += p
	}

	exec := &domain.Execution{Backend: BackendName, Shots: shots}
	if g.exact || shots == 0 {
		exec.Distribution = exact
	} else {
		exec.Distribution = g.sample(exact, shots)
	}

	g.logger.Debug("Simulated circuit", "backend", BackendName, "shots", shots, "exact", g.exact)
	return exec, nil
}

// sample draws shots outcomes from exact and returns their relative frequencies.
func (g *Gateway) sample(exact map[string]float64, shots int) domain.Distribution {
	labels := domain.Distribution(exact).Labels()
	hits := make(map[string]int, len(labels))

	g.mu.Lock()
	defer g.mu.Unlock()
	for range shots {
		u := g.rng.Float64()
		acc := 0.0
		chosen := labels[len(labels)-1]
		for _, l := range labels {
			acc += exact[l]
			if u < acc {
				chosen = l
				break
			}
		}
		hits[chosen]++
	}

	dist := make(domain.Distribution, len(hits))
	for l, n := range hits {
		dist[l] = float64(n) / float64(shots)
	}
	return dist
}

// readout maps a basis-state index to the classical register value, most significant bit first.
func readout(idx int, measures []circuit.Op, clbits int) string {
	bits := make([]byte, clbits)
	for i := range bits {
		bits[i] = '0'
	}
	for _, m := range measures {
		if idx&(1<<m.Qubit) != 0 {
			bits[clbits-1-m.Clbit] = '1'
		} else {
			bits[clbits-1-m.Clbit] = '0'
		}
	}
	return string(bits)
}
