package turing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/turing/internal/runtime"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/progfile"
)

// Defaults applied when no option overrides them.
const (
	DefaultMemorySize    = 1000
	DefaultInitialSymbol = domain.Symbol('0')
	DefaultMaxMemorySize = runtime.DefaultMaxMemorySize
)

// Engine is the high-level entry point for the Turing library.
// It wraps the internal runtime machine and adds program file handling.
// An Engine is not safe for concurrent use; callers sharing one must serialize access.
type Engine struct {
	machine *runtime.Machine

	memorySize    int
	initialSymbol domain.Symbol
	maxMemory     int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMemorySize sets the initial tape length (default 1000).
func WithMemorySize(n int) Option {
	return func(e *Engine) {
		e.memorySize = n
	}
}

// WithInitialSymbol sets the tape fill symbol (default '0').
func WithInitialSymbol(s domain.Symbol) Option {
	return func(e *Engine) {
		e.initialSymbol = s
	}
}

// WithMaxMemorySize caps the tape length accepted later by SetMemorySize.
func WithMaxMemorySize(n int) Option {
	return func(e *Engine) {
		e.maxMemory = n
	}
}

// New initializes a new Engine with an empty program.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		memorySize:    DefaultMemorySize,
		initialSymbol: DefaultInitialSymbol,
		maxMemory:     DefaultMaxMemorySize,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so the runtime never sees nil
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	m, err := runtime.NewMachine(eng.memorySize, eng.initialSymbol,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMaxMemorySize(eng.maxMemory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}
	eng.machine = m
	return eng, nil
}

// AddInstruction adds the rule (from, read) -> (to, write, dir). A later rule for
// the same (from, read) pair takes over the lookup.
func (e *Engine) AddInstruction(from string, read domain.Symbol, to string, write domain.Symbol, dir domain.Direction) error {
	return e.machine.AddInstruction(from, read, to, write, dir)
}

// DeleteInstruction removes the instruction at the 1-based position pos.
func (e *Engine) DeleteInstruction(pos int) error {
	return e.machine.DeleteInstruction(pos)
}

// ClearProgram removes every instruction.
func (e *Engine) ClearProgram() { e.machine.ClearProgram() }

// Reset refills the tape and returns to the initial state.
func (e *Engine) Reset() { e.machine.Reset() }

// SetMemorySize reallocates the tape and resets the machine.
func (e *Engine) SetMemorySize(n int) error { return e.machine.SetMemorySize(n) }

// SetInitialSymbol changes the fill symbol and resets the machine.
func (e *Engine) SetInitialSymbol(s domain.Symbol) error { return e.machine.SetInitialSymbol(s) }

// SetHeadPosition moves the head.
func (e *Engine) SetHeadPosition(pos int) error { return e.machine.SetHeadPosition(pos) }

// SetTape writes text at pos and leaves the head on its last character.
func (e *Engine) SetTape(pos int, text string) error { return e.machine.SetTape(pos, text) }

// SetState changes the current state to an already known state.
func (e *Engine) SetState(name string) error { return e.machine.SetState(name) }

// Step executes a single instruction.
func (e *Engine) Step() (domain.Outcome, error) { return e.machine.Step() }

// StepN executes up to n instructions, stopping early on halt or when ctx is done.
func (e *Engine) StepN(ctx context.Context, n int) (domain.Outcome, error) {
	return e.machine.StepN(ctx, n)
}

// StepNFunc is StepN polling cancelled before every instruction.
func (e *Engine) StepNFunc(n int, cancelled func() bool) (domain.Outcome, error) {
	return e.machine.StepNFunc(n, cancelled)
}

// Run steps until the machine halts, fails or ctx is done.
// Cancellation is reported as domain.Cancelled with a nil error.
func (e *Engine) Run(ctx context.Context) (domain.Outcome, error) { return e.machine.Run(ctx) }

// RunFunc is Run with an arbitrary cancellation check, polled before every step.
func (e *Engine) RunFunc(cancelled func() bool) (domain.Outcome, error) {
	return e.machine.RunFunc(cancelled)
}

// Lookup returns the instruction that fires for (state, symbol), if any.
func (e *Engine) Lookup(state string, symbol domain.Symbol) (domain.InstructionText, bool) {
	return e.machine.Lookup(state, symbol)
}

// Tape returns the raw tape contents.
func (e *Engine) Tape() string { return e.machine.Tape() }

// TapeLength returns the number of tape cells.
func (e *Engine) TapeLength() int { return e.machine.TapeLength() }

// MemorySize is the tape length.
func (e *Engine) MemorySize() int { return e.machine.MemorySize() }

// InitialSymbol returns the tape fill symbol.
func (e *Engine) InitialSymbol() domain.Symbol { return e.machine.InitialSymbol() }

// Head returns the head position.
func (e *Engine) Head() int { return e.machine.Head() }

// State returns the current state name.
func (e *Engine) State() string { return e.machine.State() }

// Steps returns the step counter.
func (e *Engine) Steps() int { return e.machine.Steps() }

// Halted reports whether the machine needs a reset.
func (e *Engine) Halted() bool { return e.machine.Halted() }

// Status returns the coarse machine status.
func (e *Engine) Status() domain.MachineStatus { return e.machine.Status() }

// States returns the known state names in interning order.
func (e *Engine) States() []string { return e.machine.States() }

// Instructions returns the program in store order.
func (e *Engine) Instructions() []domain.InstructionText { return e.machine.Instructions() }

// LiveInstructions returns the instructions reachable through lookup.
func (e *Engine) LiveInstructions() []domain.InstructionText { return e.machine.LiveInstructions() }

// ProgramLines returns the annotated program listing, one line per instruction.
func (e *Engine) ProgramLines() []string { return e.machine.ProgramLines() }

// ProgramListing returns ProgramLines joined with newlines.
func (e *Engine) ProgramListing() string { return e.machine.ProgramListing() }

// TapeWindow renders the tape around the head; a negative radius renders all of it.
func (e *Engine) TapeWindow(radius int) string { return e.machine.TapeWindow(radius) }

// StatusSummary renders state, head, steps and the tape window.
func (e *Engine) StatusSummary(radius int) string { return e.machine.StatusSummary(radius) }

// Snapshot captures the full machine image.
func (e *Engine) Snapshot() domain.Snapshot { return e.machine.Snapshot() }

// Restore replaces the machine with snap. The engine is unchanged on error.
func (e *Engine) Restore(snap domain.Snapshot) error { return e.machine.Restore(snap) }

// ReadProgram replaces the program with the one read from r and resets the machine.
// Malformed lines are reported in a *progfile.LoadError while the valid ones are applied.
func (e *Engine) ReadProgram(r io.Reader) error {
	f, parseErr := progfile.Parse(r)
	return e.applyProgram(f, parseErr)
}

// LoadProgram is ReadProgram for the file at path.
func (e *Engine) LoadProgram(path string) error {
	f, parseErr := progfile.ReadFile(path)
	if f == nil {
		return parseErr
	}
	return e.applyProgram(f, parseErr)
}

// WriteProgram writes the program, memory size and initial symbol to w.
func (e *Engine) WriteProgram(w io.Writer) error {
	return progfile.Write(w, progfile.FromSnapshot(e.machine.Snapshot()))
}

// SaveProgram writes the program file at path atomically.
func (e *Engine) SaveProgram(path string) error {
	if err := progfile.WriteFile(path, progfile.FromSnapshot(e.machine.Snapshot())); err != nil {
		return err
	}
	e.logger.Debug("Program saved", "path", path, "instructions", e.machine.ProgramLen())
	return nil
}

func (e *Engine) applyProgram(f *progfile.File, parseErr error) error {
	var loadErr *progfile.LoadError
	if parseErr != nil && !errors.As(parseErr, &loadErr) {
		return parseErr
	}

	e.machine.ClearProgram()
	applyErr := f.Apply(e.machine)
	e.machine.Reset()
	e.logger.Debug("Program loaded", "instructions", e.machine.ProgramLen(), "memsize", e.machine.MemorySize())
	return errors.Join(parseErr, applyErr)
}
