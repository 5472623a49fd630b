package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/internal/presentation/tui"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/observability"
)

// FlipOptions contains the configuration for one `qflip` run.
type FlipOptions struct {
	Config *config.Config
	Debug  bool
	Quiet  bool
	In     io.Reader // token prompt input
	Out    io.Writer // report
	ErrOut io.Writer // prompt and logs
}

// RunFlip runs one classical vs. quantum comparison and prints the report to opts.Out.
func RunFlip(ctx context.Context, opts FlipOptions) (*domain.Run, error) {
	cfg := opts.Config
	if cfg.Shots <= 0 {
		return nil, fmt.Errorf("%w: %d (--shots must be positive)", domain.ErrInvalidShots, cfg.Shots)
	}

	logger := NewLogger(cfg, opts.Debug, opts.Quiet)
	out := opts.Out

	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	creds := NewCredentials(opts.In, opts.ErrOut)
	gw := NewGateway(cfg, creds, logger, func(backend string) {
		fmt.Fprintf(out, "Running on real device: %s\n", backend)
	})

	hooks := domain.ChainHooks(reportHooks(out), observability.LogHooks(logger))
	exp, err := NewExperiment(cfg, gw, store, logger, hooks)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out, "Quantum Coin Flip Circuit:")
	fmt.Fprintln(out, exp.Circuit().Draw())

	run, err := exp.Run(ctx, cfg.Shots)
	if err != nil {
		return nil, err
	}

	if !opts.Quiet {
		render := tui.NewRenderer()
		summary, err := render(tui.SummaryMarkdown(run))
		if err != nil {
			summary = tui.SummaryMarkdown(run)
		}
		fmt.Fprint(out, summary)
	}
	fmt.Fprintf(out, "\nHistograms saved to %s/ directory.\n", cfg.OutputDir)
	return run, nil
}

// reportHooks prints the console progress lines around each stage.
func reportHooks(out io.Writer) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			switch e.Stage {
			case domain.StageClassical:
				fmt.Fprintln(out, "\nRunning Classical Coin Flip...")
			case domain.StageQuantum:
				fmt.Fprintf(out, "\nRunning Quantum Coin Flip on %s...\n", e.Mode.Description())
			}
		},
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				return
			}
			switch e.Stage {
			case domain.StageClassical:
				fmt.Fprintln(out, "Classical Results:", e.Counts)
			case domain.StageQuantum:
				fmt.Fprintln(out, "Quantum Results:", e.Counts)
			}
		},
	}
}
