package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/qflip"
	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/adapters/credentials"
	"github.com/aretw0/qflip/pkg/adapters/file"
	"github.com/aretw0/qflip/pkg/adapters/ibm"
	"github.com/aretw0/qflip/pkg/adapters/memory"
	"github.com/aretw0/qflip/pkg/adapters/redis"
	"github.com/aretw0/qflip/pkg/adapters/simulator"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/normalize"
	"github.com/aretw0/qflip/pkg/ports"
)

// NewLogger configures the application logger.
// Debug wins over quiet; otherwise the configured level applies.
func NewLogger(cfg *config.Config, debug, quiet bool) *slog.Logger {
	switch {
	case debug:
		return logging.New(slog.LevelDebug)
	case quiet:
		return logging.NewNop()
	default:
		return logging.New(logging.ParseLevel(cfg.LogLevel))
	}
}

// NewCredentials returns the token source: QFLIP_IBM_TOKEN, then an interactive
// prompt when in is not nil.
func NewCredentials(in io.Reader, prompt io.Writer) ports.CredentialProvider {
	chain := credentials.Chain{credentials.Env{Key: credentials.DefaultEnvKey}}
	if in != nil {
		chain = append(chain, &credentials.Prompt{In: in, Out: prompt, Message: credentials.DefaultPrompt})
	}
	return chain
}

// NewGateway picks the execution gateway for cfg.Real.
func NewGateway(cfg *config.Config, creds ports.CredentialProvider, logger *slog.Logger, onSelect func(string)) ports.ExecutionGateway {
	if !cfg.Real {
		opts := []simulator.Option{simulator.WithLogger(logger)}
		if cfg.Seed != 0 {
			opts = append(opts, simulator.WithSeed(cfg.Seed))
		}
		return simulator.New(opts...)
	}

	var clientOpts []ibm.ClientOption
	if cfg.IBM.AuthURL != "" {
		clientOpts = append(clientOpts, ibm.WithAuthURL(cfg.IBM.AuthURL))
	}
	if cfg.IBM.BaseURL != "" {
		clientOpts = append(clientOpts, ibm.WithBaseURL(cfg.IBM.BaseURL))
	}
	opts := []ibm.Option{
		ibm.WithClient(ibm.NewClient(clientOpts...)),
		ibm.WithInstance(cfg.IBM.Instance),
		ibm.WithPollInterval(cfg.IBM.PollInterval),
		ibm.WithLogger(logger),
	}
	if cfg.IBM.Backend != "" {
		opts = append(opts, ibm.WithBackend(cfg.IBM.Backend))
	}
	if onSelect != nil {
		opts = append(opts, ibm.WithBackendSelected(onSelect))
	}
	return ibm.New(creds, opts...)
}

// NewStore opens the configured run store. The returned close func is never nil.
// A nil store means persistence is off.
func NewStore(ctx context.Context, cfg *config.Config) (ports.RunStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreNone, "":
		return nil, noop, nil
	case config.StoreMemory:
		return memory.NewStore(), noop, nil
	case config.StoreFile:
		dir := cfg.StoreDir
		if dir == "" {
			dir = filepath.Join(cfg.OutputDir, "runs")
		}
		return file.New(dir), noop, nil
	case config.StoreRedis:
		opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", domain.ErrUnknownStore, cfg.Store)
	}
}

// NewExperiment wires an Experiment from cfg. extra options are applied last.
func NewExperiment(cfg *config.Config, gw ports.ExecutionGateway, store ports.RunStore, logger *slog.Logger, hooks domain.LifecycleHooks, extra ...qflip.Option) (*qflip.Experiment, error) {
	policy, err := normalize.ParsePolicy(cfg.Rounding)
	if err != nil {
		return nil, err
	}

	mode := domain.ModeSimulator
	if cfg.Real {
		mode = domain.ModeHardware
	}

	opts := []qflip.Option{
		qflip.WithLogger(logger),
		qflip.WithMode(mode),
		qflip.WithRounding(policy),
		qflip.WithOutputDir(cfg.OutputDir),
		qflip.WithSeed(cfg.Seed),
		qflip.WithLifecycleHooks(hooks),
	}
	if store != nil {
		opts = append(opts, qflip.WithStore(store))
	}
	opts = append(opts, extra...)
	return qflip.New(gw, opts...), nil
}
