// Package mcp exposes a machine as a Model Context Protocol server.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/command"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	ProgramURI = "turing://program"
	StatusURI  = "turing://status"
)

// DefaultRunTimeout bounds the run, step and exec tools.
const DefaultRunTimeout = 10 * time.Second

// Status aligns with the HTTP adapter's status payload.
type Status struct {
	State  string `json:"state" jsonschema_description:"Current state name"`
	Head   int    `json:"head" jsonschema_description:"Head position, 0-based"`
	Steps  int    `json:"steps" jsonschema_description:"Computation steps since the last reset"`
	Halted bool   `json:"halted" jsonschema_description:"Whether the machine must be reset before stepping"`
	Tape   string `json:"tape" jsonschema_description:"Raw tape contents"`
	Window string `json:"window" jsonschema_description:"Tape around the head, head cell in angle brackets"`
}

// ExecArgs are the arguments of the exec tool.
type ExecArgs struct {
	Line string `json:"line"`
}

// RunArgs are the arguments of the run and step tools.
type RunArgs struct {
	N         int `json:"n"`
	TimeoutMS int `json:"timeout_ms"`
}

// OutcomeResult reports how a step or run ended.
type OutcomeResult struct {
	Outcome string `json:"outcome" jsonschema_description:"continued, halted or cancelled"`
	Error   string `json:"error,omitempty" jsonschema_description:"Why the machine stopped, when it failed"`
	Status  Status `json:"status"`
}

// Server wraps an engine and exposes it as an MCP Server.
type Server struct {
	mu         sync.Mutex
	engine     *turing.Engine
	interp     *command.Interpreter
	out        bytes.Buffer
	window     int
	interpOpts []command.Option
	runTimeout time.Duration
	origin     string
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithWindow sets the tape radius of status windows.
func WithWindow(radius int) Option {
	return func(s *Server) {
		s.window = radius
	}
}

// WithInterpreterOptions configures the interpreter behind the exec tool.
func WithInterpreterOptions(opts ...command.Option) Option {
	return func(s *Server) {
		s.interpOpts = append(s.interpOpts, opts...)
	}
}

// WithRunTimeout caps how long one tool call may keep the machine busy.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithAllowedOrigin lets browser pages served from origin use the SSE
// transport. Without it no CORS headers are sent.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. The exec tool cannot load or
// save files.
func NewServer(engine *turing.Engine, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		window:     command.DefaultWindow,
		runTimeout: DefaultRunTimeout,
		logger:     slog.Default(),
		mcpServer:  server.NewMCPServer("turing-mcp", strings.TrimSpace(turing.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	interpOpts := append([]command.Option{command.WithWindow(s.window), command.WithLogger(s.logger)}, s.interpOpts...)
	interpOpts = append(interpOpts, command.WithoutFileIO())
	s.interp = command.New(engine, &s.out, interpOpts...)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", s.corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", s.corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
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

// CORSHandler wraps next so that only the configured origin gets CORS headers.
func (s *Server) CORSHandler(next http.Handler) http.Handler {
	return s.corsMiddleware(next)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.origin == "" || r.Header.Get("Origin") != s.origin {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("exec",
		mcp.WithDescription("Execute one Turing machine REPL command line, e.g. '+ $ 0 A 1 >', 'step 3', 'run', 'reset' or 'help'. Returns the command output."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The command line")),
	), s.handleExec)

	s.mcpServer.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Get the current state, head position, step count and tape."),
		mcp.WithOutputSchema[Status](),
	), mcp.NewStructuredToolHandler(func(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (Status, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.status(), nil
	}))

	s.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Execute up to n computation steps, stopping early when the machine halts."),
		mcp.WithNumber("n", mcp.Description("Number of steps (default 1)")),
		mcp.WithOutputSchema[OutcomeResult](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("run",
		mcp.WithDescription("Run until the machine halts or the timeout expires."),
		mcp.WithNumber("timeout_ms", mcp.Description("Timeout in milliseconds (default 10000)")),
		mcp.WithOutputSchema[OutcomeResult](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("program",
		mcp.WithDescription("List the program, one numbered instruction per line. '=>' marks the instruction that fires next."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		listing := s.engine.ProgramListing()
		if listing == "" {
			listing = "(empty program)"
		}
		return mcp.NewToolResultText(listing), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("graph",
		mcp.WithDescription("Get the transition graph as a Mermaid state diagram."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.States(), s.engine.LiveInstructions(), &graph.GraphOverlay{
			CurrentState: s.engine.State(),
			Halted:       s.engine.Halted(),
		})), nil
	})
}

func (s *Server) handleExec(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.out.Reset()
	if err := s.interp.Exec(ctx, line); err != nil {
		s.logger.Debug("MCP exec failed", "line", line, "err", err)
		return mcp.NewToolResultError(s.out.String() + "Error: " + err.Error()), nil
	}
	out := s.out.String()
	if out == "" {
		out = "ok"
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (OutcomeResult, error) {
	n := args.N
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return OutcomeResult{}, fmt.Errorf("n must not be negative, got %d", n)
	}

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.engine.StepN(ctx, n)
	return s.result(outcome, err), nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (OutcomeResult, error) {
	timeout := s.runTimeout
	if args.TimeoutMS > 0 {
		timeout = min(time.Duration(args.TimeoutMS)*time.Millisecond, s.runTimeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.engine.Run(ctx)
	return s.result(outcome, err), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProgramURI, "Current Program",
		mcp.WithResourceDescription("The program in the program file format"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var buf bytes.Buffer
		if err := s.engine.WriteProgram(&buf); err != nil {
			return nil, fmt.Errorf("failed to write program: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ProgramURI,
				MIMEType: "text/plain",
				Text:     buf.String(),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(StatusURI, "Machine Status",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		status := s.status()
		s.mu.Unlock()

		jsonBytes, err := json.Marshal(status)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StatusURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) status() Status {
	return Status{
		State:  s.engine.State(),
		Head:   s.engine.Head(),
		Steps:  s.engine.Steps(),
		Halted: s.engine.Halted(),
		Tape:   s.engine.Tape(),
		Window: s.engine.TapeWindow(s.window),
	}
}

func (s *Server) result(outcome domain.Outcome, err error) OutcomeResult {
	res := OutcomeResult{Outcome: outcome.String(), Status: s.status()}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
