// Package http serves one machine over a JSON HTTP API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/metrics"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/command"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/progfile"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultRunTimeout bounds POST /run when the request sets no timeout.
const DefaultRunTimeout = 10 * time.Second

// Server exposes a single machine. One mutex serializes every request that
// touches it, runs included.
type Server struct {
	mu     sync.Mutex
	engine *turing.Engine
	interp *command.Interpreter
	out    bytes.Buffer

	window     int
	interpOpts []command.Option
	maxTimeout time.Duration
	origin     string
	metrics    *metrics.Collector
	streams    *StreamManager
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithWindow sets the tape radius of the status window.
func WithWindow(radius int) Option {
	return func(s *Server) {
		s.window = radius
	}
}

// WithMaxRunTimeout caps the timeout a client may request for POST /run.
func WithMaxRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.maxTimeout = d
		}
	}
}

// WithAllowedOrigin lets browser pages served from origin call the API.
// Without it no CORS headers are sent.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) {
		s.origin = origin
	}
}

// WithMetrics serves c on GET /metrics and records run durations.
// The engine should be built with c.Hooks().
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithStreams serves machine events on GET /events.
// The engine should be built with sm.Hooks().
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithInterpreterOptions configures the interpreter behind POST /exec,
// e.g. to enable checkpoints.
func WithInterpreterOptions(opts ...command.Option) Option {
	return func(s *Server) {
		s.interpOpts = append(s.interpOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server around engine. The interpreter behind POST /exec
// cannot load or save files.
func NewServer(engine *turing.Engine, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		window:     command.DefaultWindow,
		maxTimeout: DefaultRunTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	interpOpts := append([]command.Option{command.WithWindow(s.window), command.WithLogger(s.logger)}, s.interpOpts...)
	interpOpts = append(interpOpts, command.WithoutFileIO())
	s.interp = command.New(engine, &s.out, interpOpts...)
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine *turing.Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/status", s.GetStatus)
	r.Get("/program", s.GetProgram)
	r.Put("/program", s.PutProgram)
	r.Get("/program/file", s.GetProgramFile)
	r.Get("/graph", s.GetGraph)
	r.Post("/exec", s.Exec)
	r.Post("/step", s.Step)
	r.Post("/run", s.Run)
	r.Post("/reset", s.Reset)
	if s.streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return s.enableCORS(r)
}

// enableCORS answers cross-origin requests only from the configured origin.
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.origin == "" || r.Header.Get("Origin") != s.origin {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Add("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Status is the machine state returned by most endpoints.
type Status struct {
	State         string               `json:"state"`
	Head          int                  `json:"head"`
	Steps         int                  `json:"steps"`
	Halted        bool                 `json:"halted"`
	Status        domain.MachineStatus `json:"status"`
	MemorySize    int                  `json:"memsize"`
	InitialSymbol domain.Symbol        `json:"initsymbol"`
	Tape          string               `json:"tape"`
	Window        string               `json:"window"`
}

// ExecRequest is the body of POST /exec.
type ExecRequest struct {
	Line string `json:"line"`
}

// ExecResponse carries the interpreter output of one command line.
type ExecResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	Status Status `json:"status"`
}

// StepRequest is the body of POST /step. N defaults to 1.
type StepRequest struct {
	N *int `json:"n"`
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	TimeoutMS int `json:"timeout_ms"`
}

// OutcomeResponse reports how a step or run ended.
type OutcomeResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
	Status  Status `json:"status"`
}

// ProgramResponse lists the program.
type ProgramResponse struct {
	Instructions []domain.InstructionText `json:"instructions"`
	Listing      []string                 `json:"listing"`
}

// ErrorResponse is returned with every 4xx and 5xx status.
type ErrorResponse struct {
	Error string   `json:"error"`
	Lines []string `json:"lines,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "turing-http",
		"version": strings.TrimSpace(turing.Version),
	})
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.status())
}

// GetProgram handles the GET /program request.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := ProgramResponse{
		Instructions: s.engine.Instructions(),
		Listing:      s.engine.ProgramLines(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// PutProgram handles the PUT /program request. The body is a program file;
// it replaces the program and resets the machine.
func (s *Server) PutProgram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.engine.ReadProgram(r.Body)
	if err != nil {
		var loadErr *progfile.LoadError
		resp := ErrorResponse{Error: err.Error()}
		if errors.As(err, &loadErr) {
			for _, le := range loadErr.Lines {
				resp.Lines = append(resp.Lines, le.Error())
			}
		}
		s.logger.Warn("PutProgram: program rejected", "err", err)
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status())
}

// GetProgramFile handles the GET /program/file request.
func (s *Server) GetProgramFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.engine.WriteProgram(&buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(buf.Bytes())
}

// GetGraph handles the GET /graph request with a Mermaid diagram.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	diagram := graph.GenerateMermaid(s.engine.States(), s.engine.LiveInstructions(), &graph.GraphOverlay{
		CurrentState: s.engine.State(),
		Halted:       s.engine.Halted(),
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, diagram)
}

// Exec handles the POST /exec request: one REPL command line.
func (s *Server) Exec(w http.ResponseWriter, r *http.Request) {
	var body ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.maxTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.out.Reset()
	err := s.interp.Exec(ctx, body.Line)
	resp := ExecResponse{Output: s.out.String(), Status: s.status()}
	code := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		code = statusCode(err)
	}
	s.writeJSON(w, code, resp)
}

// Step handles the POST /step request.
func (s *Server) Step(w http.ResponseWriter, r *http.Request) {
	var body StepRequest
	if err := decodeOptional(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	n := 1
	if body.N != nil {
		n = *body.N
	}
	if n < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: n must not be negative", progfile.ErrInvalidNumber))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.maxTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, err := s.engine.StepN(ctx, n)
	s.writeOutcome(w, outcome, err)
}

// Run handles the POST /run request. The run is cancelled when the timeout
// expires or the client goes away.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := decodeOptional(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	timeout := s.maxTimeout
	if body.TimeoutMS > 0 {
		timeout = min(time.Duration(body.TimeoutMS)*time.Millisecond, s.maxTimeout)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	outcome, err := s.engine.Run(ctx)
	if s.metrics != nil {
		s.metrics.ObserveRun(outcome, err, time.Since(start))
	}
	s.logger.Debug("Run finished", "outcome", outcome.String(), "steps", s.engine.Steps(), "duration", time.Since(start))
	s.writeOutcome(w, outcome, err)
}

// Reset handles the POST /reset request.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	s.writeJSON(w, http.StatusOK, s.status())
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

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

// -- Helpers --

func (s *Server) status() Status {
	return Status{
		State:         s.engine.State(),
		Head:          s.engine.Head(),
		Steps:         s.engine.Steps(),
		Halted:        s.engine.Halted(),
		Status:        s.engine.Status(),
		MemorySize:    s.engine.MemorySize(),
		InitialSymbol: s.engine.InitialSymbol(),
		Tape:          s.engine.Tape(),
		Window:        s.engine.TapeWindow(s.window),
	}
}

func (s *Server) writeOutcome(w http.ResponseWriter, outcome domain.Outcome, err error) {
	resp := OutcomeResponse{Outcome: outcome.String(), Status: s.status()}
	code := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		code = statusCode(err)
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

// decodeOptional decodes a JSON body, accepting an empty one.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusCode maps engine errors to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrMachineHalted), errors.Is(err, domain.ErrEmptyProgram):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIllegalInstruction), errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrQuit), errors.Is(err, command.ErrNoSessions),
		errors.Is(err, command.ErrFileIODisabled):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
