package ibm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/qflip/pkg/adapters/credentials"
	"github.com/aretw0/qflip/pkg/adapters/ibm"
	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports/tests"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type device struct {
	state     bool
	simulator bool
	queue     int
}

// fakeRuntime emulates the subset of the runtime API the gateway talks to.
type fakeRuntime struct {
	mu        sync.Mutex
	devices   map[string]device
	order     []string
	quasi     map[string]float64
	final     string
	polls     int
	submitted *ibm.JobRequest
	requests  atomic.Int64
	logins    atomic.Int64
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		devices: map[string]device{
			"ibm_sim":      {state: true, simulator: true, queue: 0},
			"ibm_down":     {state: false, queue: 0},
			"ibm_brisbane": {state: true, queue: 12},
			"ibm_kyiv":     {state: true, queue: 3},
		},
		order: []string{"ibm_sim", "ibm_down", "ibm_brisbane", "ibm_kyiv"},
		quasi: map[string]float64{"0": 0.4875, "1": 0.5125},
		final: ibm.StatusCompleted,
	}
}

func (f *fakeRuntime) server(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.requests.Add(1)
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIToken string `json:"apiToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.APIToken != "good-token" {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		f.logins.Add(1)
		writeJSON(w, map[string]string{"id": "access-123"})
	})

	r.Route("/runtime", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer access-123" {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/backends", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"devices": f.order})
		})
		r.Get("/backends/{name}/status", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			d := f.devices[name]
			writeJSON(w, ibm.BackendStatus{Name: name, State: d.state, Status: "active", PendingJobs: d.queue})
		})
		r.Get("/backends/{name}/configuration", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			writeJSON(w, ibm.BackendConfiguration{Name: name, Simulator: f.devices[name].simulator, Qubits: 127})
		})
		r.Post("/jobs", func(w http.ResponseWriter, r *http.Request) {
			var req ibm.JobRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.submitted = &req
			f.mu.Unlock()
			writeJSON(w, map[string]string{"id": "job-1"})
		})
		r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.polls++
			status := ibm.StatusQueued
			if f.polls >= 3 {
				status = f.final
			}
			f.mu.Unlock()
			writeJSON(w, ibm.Job{ID: chi.URLParam(r, "id"), Status: status, State: ibm.JobState{Status: status, Reason: "calibration"}})
		})
		r.Get("/jobs/{id}/results", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, ibm.SamplerResult{QuasiDists: []map[string]float64{f.quasi}})
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeRuntime) snapshot() (*ibm.JobRequest, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted, f.polls
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newGateway(srv *httptest.Server, creds string, opts ...ibm.Option) *ibm.Gateway {
	client := ibm.NewClient(
		ibm.WithAuthURL(srv.URL+"/login"),
		ibm.WithBaseURL(srv.URL+"/runtime"),
	)
	opts = append([]ibm.Option{ibm.WithClient(client), ibm.WithPollInterval(time.Millisecond)}, opts...)
	return ibm.New(credentials.Static(creds), opts...)
}

func TestGateway_Contract(t *testing.T) {
	fake := newFakeRuntime()
	tests.GatewayContractTest(t, newGateway(fake.server(t), "good-token"), 1000)
}

func TestGateway_RunOnLeastBusyDevice(t *testing.T) {
	fake := newFakeRuntime()
	gw := newGateway(fake.server(t), "good-token", ibm.WithInstance("ibm-q/open/main"))

	exec, err := gw.Run(context.Background(), circuit.CoinFlip(), 1000)
	require.NoError(t, err)

	assert.Equal(t, "ibm_kyiv", exec.Backend)
	assert.Equal(t, "job-1", exec.JobID)
	assert.Equal(t, 1000, exec.Shots)
	assert.Equal(t, domain.Distribution{"0": 0.4875, "1": 0.5125}, exec.Distribution)

	submitted, polls := fake.snapshot()
	require.NotNil(t, submitted)
	assert.Equal(t, "sampler", submitted.ProgramID)
	assert.Equal(t, "ibm_kyiv", submitted.Backend)
	assert.Equal(t, "ibm-q", submitted.Hub)
	assert.Equal(t, "main", submitted.Project)
	assert.Equal(t, 1000, submitted.Params.RunOptions.Shots)
	assert.Equal(t, []string{circuit.CoinFlip().QASM3()}, submitted.Params.Circuits)
	assert.GreaterOrEqual(t, polls, 3, "the gateway polls until the job is terminal")
}

func TestGateway_PinnedBackend(t *testing.T) {
	fake := newFakeRuntime()
	var selected string
	gw := newGateway(fake.server(t), "good-token",
		ibm.WithBackend("ibm_brisbane"),
		ibm.WithBackendSelected(func(b string) { selected = b }),
	)

	exec, err := gw.Run(context.Background(), circuit.CoinFlip(), 10)
	require.NoError(t, err)
	assert.Equal(t, "ibm_brisbane", exec.Backend)
	assert.Equal(t, "ibm_brisbane", selected)
}

func TestGateway_MissingCredentialMakesNoCalls(t *testing.T) {
	fake := newFakeRuntime()
	gw := newGateway(fake.server(t), "")

	_, err := gw.Run(context.Background(), circuit.CoinFlip(), 1000)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, fake.requests.Load(), "no request may reach the API without a token")
}

func TestGateway_BadToken(t *testing.T) {
	fake := newFakeRuntime()
	gw := newGateway(fake.server(t), "wrong")

	_, err := gw.Run(context.Background(), circuit.CoinFlip(), 1000)
	var apiErr *ibm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGateway_NoOperationalBackend(t *testing.T) {
	fake := newFakeRuntime()
	fake.order = []string{"ibm_sim", "ibm_down"}
	gw := newGateway(fake.server(t), "good-token")

	_, err := gw.Run(context.Background(), circuit.CoinFlip(), 1000)
	assert.ErrorIs(t, err, domain.ErrNoOperationalBackend)
}

func TestGateway_JobFailed(t *testing.T) {
	fake := newFakeRuntime()
	fake.final = "Cancelled - Ran too long"
	gw := newGateway(fake.server(t), "good-token")

	_, err := gw.Run(context.Background(), circuit.CoinFlip(), 1000)
	assert.ErrorIs(t, err, domain.ErrJobFailed)
	assert.ErrorContains(t, err, "calibration")
}

func TestGateway_OutcomeKeys(t *testing.T) {
	fake := newFakeRuntime()
	fake.quasi = map[string]float64{"0x0": 0.25, "0x3": 0.75}
	gw := newGateway(fake.server(t), "good-token")

	exec, err := gw.Run(context.Background(), circuit.New(2, 2).H(0).Measure(0, 0).Measure(1, 1), 100)
	require.NoError(t, err)
	assert.Equal(t, domain.Distribution{"00": 0.25, "11": 0.75}, exec.Distribution)
}

func TestGateway_OutcomeKeyWiderThanRegister(t *testing.T) {
	fake := newFakeRuntime()
	fake.quasi = map[string]float64{"0": 0.5, "2": 0.5}
	gw := newGateway(fake.server(t), "good-token")

	_, err := gw.Run(context.Background(), circuit.CoinFlip(), 100)
	assert.ErrorContains(t, err, `outcome key "2" does not fit 1 classical bits`)
}

func TestGateway_ConcurrentRuns(t *testing.T) {
	fake := newFakeRuntime()
	gw := newGateway(fake.server(t), "good-token")

	const runs = 4
	var wg sync.WaitGroup
	errs := make([]error, runs)
	for i := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = gw.Run(context.Background(), circuit.CoinFlip(), 100)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "run %d", i)
	}
	assert.Equal(t, int64(runs), fake.logins.Load(), "every run authenticates on its own session")
}

func TestJob_Terminal(t *testing.T) {
	for status, want := range map[string]bool{
		ibm.StatusQueued:           false,
		ibm.StatusRunning:          false,
		ibm.StatusCompleted:        true,
		ibm.StatusFailed:           true,
		ibm.StatusCancelled:        true,
		"Cancelled - Ran too long": true,
	} {
		job := &ibm.Job{Status: status}
		assert.Equal(t, want, job.Terminal(), status)
	}
}
