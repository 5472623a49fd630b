// Package mcp exposes coin flips as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/qflip"
	"github.com/aretw0/qflip/internal/logging"
	"github.com/aretw0/qflip/pkg/circuit"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Runner executes one comparison run. *qflip.Experiment satisfies it.
type Runner interface {
	Run(ctx context.Context, shots int) (*domain.Run, error)
}

// FlipArgs are the arguments of flip_coin.
type FlipArgs struct {
	Shots int `json:"shots"`
}

// RunArgs are the arguments of get_run.
type RunArgs struct {
	ID string `json:"id"`
}

// DrawArgs are the arguments of draw_circuit.
type DrawArgs struct {
	Format string `json:"format"`
}

// RunList is the result of list_runs.
type RunList struct {
	IDs []string `json:"ids" jsonschema_description:"Stored run IDs, oldest first"`
}

// Server exposes an experiment as an MCP server.
type Server struct {
	runner    Runner
	store     ports.RunStore
	circuit   *circuit.Circuit
	maxShots  int
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithCircuit sets the circuit returned by draw_circuit.
func WithCircuit(c *circuit.Circuit) Option {
	return func(s *Server) {
		s.circuit = c
	}
}

// WithMaxShots caps the shot count a client may request.
func WithMaxShots(n int) Option {
	return func(s *Server) {
		s.maxShots = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. store may be nil.
func NewServer(runner Runner, store ports.RunStore, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		store:     store,
		circuit:   circuit.CoinFlip(),
		maxShots:  100000,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("qflip-mcp", strings.TrimSpace(qflip.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for transports other than the built-in ones.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("flip_coin",
		mcp.WithDescription("Flip a classical and a quantum coin the given number of times and compare the histograms."),
		mcp.WithNumber("shots", mcp.Required(), mcp.Description("Number of flips, at least 1")),
		mcp.WithOutputSchema[domain.Run](),
	), mcp.NewStructuredToolHandler(s.handleFlip))

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the IDs of stored runs, oldest first."),
		mcp.WithOutputSchema[RunList](),
	), mcp.NewStructuredToolHandler(s.handleListRuns))

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Fetch a stored run by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
		mcp.WithOutputSchema[domain.Run](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))

	s.mcpServer.AddTool(mcp.NewTool("draw_circuit",
		mcp.WithDescription("Show the coin-flip circuit as a text diagram or OpenQASM."),
		mcp.WithString("format", mcp.Description("text (default), qasm2 or qasm3"), mcp.Enum("text", "qasm2", "qasm3")),
	), s.handleDraw)
}

func (s *Server) handleFlip(ctx context.Context, request mcp.CallToolRequest, args FlipArgs) (domain.Run, error) {
	if args.Shots <= 0 || args.Shots > s.maxShots {
		return domain.Run{}, fmt.Errorf("%w: %d (must be between 1 and %d)", domain.ErrInvalidShots, args.Shots, s.maxShots)
	}
	run, err := s.runner.Run(ctx, args.Shots)
	if err != nil {
		s.logger.Error("MCP flip_coin failed", "error", err)
		return domain.Run{}, fmt.Errorf("flip failed: %w", err)
	}
	return *run, nil
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest, args struct{}) (RunList, error) {
	if s.store == nil {
		return RunList{IDs: []string{}}, nil
	}
	ids, err := s.store.List(ctx)
	if err != nil {
		return RunList{}, fmt.Errorf("list failed: %w", err)
	}
	return RunList{IDs: ids}, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (domain.Run, error) {
	if s.store == nil {
		return domain.Run{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, args.ID)
	}
	run, err := s.store.Load(ctx, args.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return domain.Run{}, fmt.Errorf("%w: %s", err, args.ID)
		}
		return domain.Run{}, fmt.Errorf("load failed: %w", err)
	}
	return *run, nil
}

func (s *Server) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.render(request.GetString("format", "text"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) render(format string) (string, error) {
	switch format {
	case "", "text":
		return s.circuit.Draw(), nil
	case "qasm2":
		return s.circuit.QASM2(), nil
	case "qasm3":
		return s.circuit.QASM3(), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("qflip://circuit", "Coin-flip circuit (OpenQASM 3)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "qflip://circuit",
				MIMEType: "text/plain",
				Text:     s.circuit.QASM3(),
			},
		}, nil
	})
}
