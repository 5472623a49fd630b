package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/qflip/internal/cli"
	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/pkg/adapters/file"
	"github.com/aretw0/qflip/pkg/adapters/memory"
	"github.com/aretw0/qflip/pkg/adapters/redis"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "results")
	cfg.Seed = 42
	cfg.Shots = 100
	return cfg
}

func TestRunFlip_Simulator(t *testing.T) {
	cfg := testConfig(t)
	var out, errOut bytes.Buffer

	run, err := cli.RunFlip(context.Background(), cli.FlipOptions{Config: cfg, Quiet: true, Out: &out, ErrOut: &errOut})
	require.NoError(t, err)
	assert.Equal(t, 100, run.Classical.Total())
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "classical_histogram.png"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "simulator_histogram.png"))

	text := out.String()
	order := []string{
		"Quantum Coin Flip Circuit:",
		"┤ H ├",
		"Running Classical Coin Flip...",
		"Classical Results: {'0': ",
		"Running Quantum Coin Flip on Simulator...",
		"Quantum Results: {'0': ",
		"Histograms saved to " + cfg.OutputDir + "/ directory.",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(text, want)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", want, text)
		assert.Greater(t, idx, last, "%q is out of order", want)
		last = idx
	}
}

func TestRunFlip_Summary(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	_, err := cli.RunFlip(context.Background(), cli.FlipOptions{Config: cfg, Out: &out, ErrOut: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Classical")
}

func TestRunFlip_RejectsNonPositiveShots(t *testing.T) {
	for _, shots := range []int{0, -3} {
		cfg := testConfig(t)
		cfg.Shots = shots
		_, err := cli.RunFlip(context.Background(), cli.FlipOptions{Config: cfg, Quiet: true, Out: &bytes.Buffer{}})
		assert.ErrorIs(t, err, domain.ErrInvalidShots)
	}
}

func TestRunFlip_RealWithoutToken(t *testing.T) {
	t.Setenv("QFLIP_IBM_TOKEN", "")
	cfg := testConfig(t)
	cfg.Real = true
	cfg.IBM.AuthURL = "http://127.0.0.1:1/unreachable"
	var out, prompt bytes.Buffer

	_, err := cli.RunFlip(context.Background(), cli.FlipOptions{
		Config: cfg,
		Quiet:  true,
		In:     strings.NewReader("\n"),
		Out:    &out,
		ErrOut: &prompt,
	})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Contains(t, prompt.String(), "Enter your IBM Quantum API token: ")
	assert.Contains(t, out.String(), "Running Quantum Coin Flip on Real Device...")
	assert.NotContains(t, out.String(), "Histograms saved")
}

func TestRunFlip_PersistsToFileStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreFile

	run, err := cli.RunFlip(context.Background(), cli.FlipOptions{Config: cfg, Quiet: true, Out: &bytes.Buffer{}})
	require.NoError(t, err)

	store := file.New(filepath.Join(cfg.OutputDir, "runs"))
	loaded, err := store.Load(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Quantum, loaded.Quantum)

	var out bytes.Buffer
	require.NoError(t, cli.ShowHistory(context.Background(), store, "", &out))
	assert.NotContains(t, out.String(), "No runs stored")

	out.Reset()
	require.NoError(t, cli.ShowHistory(context.Background(), store, run.ID, &out))
	assert.Contains(t, out.String(), run.ID)
	assert.Contains(t, out.String(), "Classical")

	err = cli.ShowHistory(context.Background(), store, "missing", &out)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestShowHistory_NoStore(t *testing.T) {
	assert.ErrorIs(t, cli.ShowHistory(context.Background(), nil, "", &bytes.Buffer{}), cli.ErrNoStore)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	cfg.Store = config.StoreNone
	store, closeFn, err := cli.NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
	assert.NoError(t, closeFn())

	cfg.Store = config.StoreMemory
	store, _, err = cli.NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	cfg.Store = config.StoreFile
	cfg.StoreDir = t.TempDir()
	store, _, err = cli.NewStore(ctx, cfg)
	require.NoError(t, err)
	require.IsType(t, &file.Store{}, store)
	assert.Equal(t, cfg.StoreDir, store.(*file.Store).BasePath)

	mr := miniredis.RunT(t)
	cfg.Store = config.StoreRedis
	cfg.Redis.Addr = mr.Addr()
	store, closeFn, err = cli.NewStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &redis.Store{}, store)
	assert.NoError(t, closeFn())

	cfg.Store = "postgres"
	_, _, err = cli.NewStore(ctx, cfg)
	assert.ErrorIs(t, err, domain.ErrUnknownStore)
}

func TestNewStore_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Store = config.StoreRedis
	cfg.Redis.Addr = addr
	_, _, err := cli.NewStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewExperiment_UnknownRounding(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rounding = "bankers"
	_, err := cli.NewExperiment(cfg, nil, nil, nil, domain.LifecycleHooks{})
	assert.ErrorIs(t, err, domain.ErrUnknownRounding)
}

func TestAPIHandler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreMemory
	h, svc, err := cli.NewAPIHandler(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flips", strings.NewReader(`{"shots": 20}`)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var run domain.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, 20, run.Classical.Total())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+run.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flips", strings.NewReader(`{"shots": -1}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `qflip_flips_total{outcome="0",source="classical"}`)
	assert.Contains(t, w.Body.String(), `qflip_runs_total{mode="simulator",status="ok"} 1`)
}

func TestAPIHandler_RunsKeepTheirOwnHistograms(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store = config.StoreMemory
	h, svc, err := cli.NewAPIHandler(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer svc.Close()

	const flips = 3
	runs := make([]domain.Run, flips)
	var wg sync.WaitGroup
	for i := range flips {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/flips", strings.NewReader(`{"shots": 10}`)))
			if assert.Equal(t, http.StatusCreated, w.Code, w.Body.String()) {
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs[i]))
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]string)
	for _, run := range runs {
		require.Len(t, run.Artifacts, 2)
		for _, path := range run.Artifacts {
			assert.Equal(t, filepath.Join(cfg.OutputDir, run.ID), filepath.Dir(path))
			assert.FileExists(t, path)
			prev, dup := seen[path]
			assert.False(t, dup, "%s is shared by runs %s and %s", path, prev, run.ID)
			seen[path] = run.ID
		}
	}
}
