package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpAdapter "github.com/aretw0/qflip/pkg/adapters/http"
	"github.com/aretw0/qflip/pkg/adapters/memory"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner returns a canned run and stores it, like an Experiment configured WithStore.
type stubRunner struct {
	store *memory.Store
	hooks domain.LifecycleHooks
	err   error
	shots []int
}

func (s *stubRunner) Run(ctx context.Context, shots int) (*domain.Run, error) {
	s.shots = append(s.shots, shots)
	if s.err != nil {
		return nil, s.err
	}
	run := &domain.Run{
		ID:        "run-1",
		Mode:      domain.ModeSimulator,
		Shots:     shots,
		Classical: domain.Counts{"0": shots / 2, "1": shots - shots/2},
		Quantum:   domain.Counts{"0": shots / 2, "1": shots / 2},
		StartedAt: time.Now().UTC(),
	}
	if s.hooks.OnRunComplete != nil {
		s.hooks.OnRunComplete(ctx, run)
	}
	if s.store != nil {
		_ = s.store.Save(ctx, run)
	}
	return run, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateFlip(t *testing.T) {
	store := memory.NewStore()
	runner := &stubRunner{store: store}
	h := httpAdapter.NewHandler(runner, store)

	w := do(t, h, http.MethodPost, "/flips", `{"shots": 10}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var run domain.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.Counts{"0": 5, "1": 5}, run.Classical)
	assert.Equal(t, []int{10}, runner.shots)
}

func TestCreateFlip_DefaultShots(t *testing.T) {
	runner := &stubRunner{}
	h := httpAdapter.NewHandler(runner, nil)

	w := do(t, h, http.MethodPost, "/flips", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []int{1000}, runner.shots)
}

func TestCreateFlip_BadRequests(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative", `{"shots": -5}`},
		{"zero", `{"shots": 0}`},
		{"over cap", `{"shots": 101}`},
		{"malformed", `{"shots":`},
		{"wrong type", `{"shots": "many"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &stubRunner{}
			h := httpAdapter.NewHandler(runner, nil, httpAdapter.WithMaxShots(100))
			w := do(t, h, http.MethodPost, "/flips", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, runner.shots, "runner must not be called")

			var resp httpAdapter.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateFlip_RunnerErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrMissingCredential, http.StatusUnauthorized},
		{domain.ErrNoOperationalBackend, http.StatusBadGateway},
		{domain.ErrJobFailed, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := httpAdapter.NewHandler(&stubRunner{err: tc.err}, nil)
			w := do(t, h, http.MethodPost, "/flips", `{"shots": 1}`)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRuns(t *testing.T) {
	store := memory.NewStore()
	h := httpAdapter.NewHandler(&stubRunner{store: store}, store)

	w := do(t, h, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/flips", `{"shots": 4}`).Code)

	w = do(t, h, http.MethodGet, "/runs", "")
	assert.JSONEq(t, `["run-1"]`, w.Body.String())

	w = do(t, h, http.MethodGet, "/runs/run-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var run domain.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, 4, run.Shots)

	w = do(t, h, http.MethodGet, "/runs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRuns_NoStore(t *testing.T) {
	h := httpAdapter.NewHandler(&stubRunner{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/runs/x", "").Code)
	assert.JSONEq(t, `[]`, do(t, h, http.MethodGet, "/runs", "").Body.String())
}

func TestHealthAndInfo(t *testing.T) {
	h := httpAdapter.NewHandler(&stubRunner{}, nil)
	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Contains(t, w.Body.String(), "qflip-http")

	w = do(t, h, http.MethodOptions, "/flips", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMount(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("qflip_runs_total 1\n"))
	})
	h := httpAdapter.NewHandler(&stubRunner{}, nil, httpAdapter.WithMetricsHandler(metrics))
	w := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qflip_runs_total")

	h = httpAdapter.NewHandler(&stubRunner{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
}

func TestSubscribeEvents(t *testing.T) {
	streams := httpAdapter.NewStreamManager()
	runner := &stubRunner{hooks: streams.Hooks()}
	srv := httptest.NewServer(httpAdapter.NewHandler(runner, nil, httpAdapter.WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// The subscription is registered before the ping is written.
	post, err := http.Post(srv.URL+"/flips", "application/json", strings.NewReader(`{"shots": 2}`))
	require.NoError(t, err)
	post.Body.Close()

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	assert.Contains(t, line, `"type":"run_complete"`)
	assert.Contains(t, line, `"run-1"`)
}

func TestStreamManager_UnsubscribeTwice(t *testing.T) {
	sm := httpAdapter.NewStreamManager()
	ch, cancel := sm.Subscribe()
	sm.Broadcast("hello")
	assert.Equal(t, "hello", <-ch)
	cancel()
	cancel()
	sm.Broadcast("ignored")
	_, ok := <-ch
	assert.False(t, ok)
}
