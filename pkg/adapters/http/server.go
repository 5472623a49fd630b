// Package http exposes coin-flip runs over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/qflip"
	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runner executes one comparison run. *qflip.Experiment satisfies it.
type Runner interface {
	Run(ctx context.Context, shots int) (*domain.Run, error)
}

// FlipRequest is the body of POST /flips.
type FlipRequest struct {
	Shots *int `json:"shots"`
}

// ErrorResponse is returned on every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves the HTTP API.
type Server struct {
	Runner       Runner
	Store        ports.RunStore
	Streams      *StreamManager
	DefaultShots int
	MaxShots     int

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks feed the runner.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxShots caps the shot count a client may request. Zero means no cap.
func WithMaxShots(n int) Option {
	return func(s *Server) {
		s.MaxShots = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler. store may be nil, in which case run lookups answer 404.
func NewHandler(runner Runner, store ports.RunStore, opts ...Option) http.Handler {
	s := &Server{
		Runner:       runner,
		Store:        store,
		DefaultShots: 1000,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/flips", s.CreateFlip)
	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{id}", s.GetRun)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateFlip handles POST /flips.
func (s *Server) CreateFlip(w http.ResponseWriter, r *http.Request) {
	req := FlipRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			s.logger.Warn("CreateFlip: invalid request body", "error", err)
			return
		}
	}

	shots := s.DefaultShots
	if req.Shots != nil {
		shots = *req.Shots
	}
	if shots <= 0 || (s.MaxShots > 0 && shots > s.MaxShots) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %d", domain.ErrInvalidShots, shots))
		return
	}

	run, err := s.Runner.Run(r.Context(), shots)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidShots):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrMissingCredential):
			status = http.StatusUnauthorized
		case errors.Is(err, domain.ErrNoOperationalBackend), errors.Is(err, domain.ErrJobFailed):
			status = http.StatusBadGateway
		}
		s.writeError(w, status, err.Error())
		s.logger.Error("CreateFlip failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, run)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		s.writeJSON(w, http.StatusOK, []string{})
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("ListRuns failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Store == nil {
		s.writeError(w, http.StatusNotFound, domain.ErrRunNotFound.Error())
		return
	}
	run, err := s.Store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %s", err, id))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("GetRun failed", "error", err, "run_id", id)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "qflip-http",
		"version": strings.TrimSpace(qflip.Version),
	})
}

// SubscribeEvents handles GET /events (SSE). Every stage event of every run is streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

// StreamManager fans out run events to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a new listener. The returned func unregisters it and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber, dropping it for clients whose buffer is full.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message")
		}
	}
}

// streamEvent is the SSE payload.
type streamEvent struct {
	Type  string             `json:"type"`
	Event *domain.StageEvent `json:"event,omitempty"`
	Run   *domain.Run        `json:"run,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Hooks returns lifecycle hooks that broadcast stage boundaries and finished runs.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	send := func(e streamEvent) {
		data, err := json.Marshal(e)
		if err != nil {
			sm.logger.Error("SSE: marshal failed", "error", err)
			return
		}
		sm.Broadcast(string(data))
	}
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			send(streamEvent{Type: "stage_start", Event: e})
		},
		OnStageEnd: func(ctx context.Context, e *domain.StageEvent) {
			ev := streamEvent{Type: "stage_end", Event: e}
			if e.Err != nil {
				ev.Error = e.Err.Error()
			}
			send(ev)
		},
		OnRunComplete: func(ctx context.Context, r *domain.Run) {
			send(streamEvent{Type: "run_complete", Run: r})
		},
	}
}
