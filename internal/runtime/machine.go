package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/turing/pkg/domain"
)

// DefaultMaxMemorySize bounds tape allocations.
const DefaultMaxMemorySize = 1 << 24

// Machine is the execution engine: it owns the interner, the program, the tape
// and the control state. It is not safe for concurrent use.
type Machine struct {
	interner *Interner
	program  *Program
	tape     *Tape

	state  domain.StateCode
	steps  int
	halted bool

	maxMemory int
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithMaxMemorySize caps the tape length accepted by SetMemorySize.
func WithMaxMemorySize(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxMemory = n
		}
	}
}

// NewMachine creates a ready machine with a tape of memorySize cells filled with initial.
func NewMachine(memorySize int, initial domain.Symbol, opts ...Option) (*Machine, error) {
	m := &Machine{
		interner:  NewInterner(),
		program:   NewProgram(),
		state:     domain.InitState,
		maxMemory: DefaultMaxMemorySize,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if !initial.Valid() || initial.IsWildcard() {
		return nil, fmt.Errorf("%w: %q cannot fill the tape", domain.ErrInvalidSymbol, initial)
	}
	if err := m.checkMemorySize(memorySize); err != nil {
		return nil, err
	}
	tape, err := NewTape(memorySize, initial)
	if err != nil {
		return nil, err
	}
	m.tape = tape
	return m, nil
}

// AddInstruction interns both states, appends the instruction to the program
// and installs it as the transition for (from, read).
func (m *Machine) AddInstruction(from string, read domain.Symbol, to string, write domain.Symbol, dir domain.Direction) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: empty state name", domain.ErrUnknownState)
	}
	for _, s := range []domain.Symbol{read, write} {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, s)
		}
	}
	if dir != domain.Left && dir != domain.Right {
		return fmt.Errorf("%w %d", domain.ErrInvalidDirection, dir)
	}

	ins := m.program.Add(domain.Instruction{
		From:  m.interner.Intern(from),
		Read:  read,
		To:    m.interner.Intern(to),
		Write: write,
		Dir:   dir,
	})
	m.logger.Debug("Instruction added", "position", m.program.Len(), "instruction", m.text(ins).String())
	return nil
}

// DeleteInstruction removes the instruction at the 1-based position pos and
// invalidates the transition for its (state, symbol) pair.
func (m *Machine) DeleteInstruction(pos int) error {
	ins, err := m.program.Delete(pos)
	if err != nil {
		return err
	}
	m.logger.Debug("Instruction deleted", "position", pos, "instruction", m.text(ins).String())
	return nil
}

// ClearProgram empties the program. The tape and the interned states are kept.
func (m *Machine) ClearProgram() {
	m.program.Clear()
	m.logger.Debug("Program cleared")
}

// Reset refills the tape, recenters the head and returns to the initial state.
// The program and the interned states are kept.
func (m *Machine) Reset() {
	m.tape.Reset()
	m.steps = 0
	m.state = domain.InitState
	m.halted = false
	m.logger.Debug("Machine reset", "memsize", m.tape.Len(), "initsymbol", m.tape.Fill().String())
	if m.hooks.OnReset != nil {
		m.hooks.OnReset(&domain.EventBase{Timestamp: time.Now(), Type: domain.EventReset})
	}
}

// SetMemorySize reallocates the tape with n cells and resets the machine.
// On failure the previous tape is kept and the machine is unchanged.
func (m *Machine) SetMemorySize(n int) error {
	if err := m.checkMemorySize(n); err != nil {
		return err
	}
	if err := m.tape.Resize(n, m.tape.Fill()); err != nil {
		return err
	}
	m.Reset()
	return nil
}

// SetInitialSymbol changes the fill symbol, reinitializes the tape and resets the machine.
func (m *Machine) SetInitialSymbol(s domain.Symbol) error {
	if !s.Valid() || s.IsWildcard() {
		return fmt.Errorf("%w: %q cannot fill the tape", domain.ErrInvalidSymbol, s)
	}
	if err := m.tape.Resize(m.tape.Len(), s); err != nil {
		return err
	}
	m.Reset()
	return nil
}

// SetHeadPosition moves the head to pos.
func (m *Machine) SetHeadPosition(pos int) error {
	return m.tape.SetHead(pos)
}

// SetTape writes text starting at pos and leaves the head on the last written
// cell. Wildcards in text skip their cell. The tape is unchanged on error.
func (m *Machine) SetTape(pos int, text string) error {
	symbols := []rune(text)
	if len(symbols) == 0 {
		return nil
	}
	end := pos + len(symbols) - 1
	if pos < 0 || end >= m.tape.Len() {
		return fmt.Errorf("%w: %d..%d (tape has %d cells)", domain.ErrInvalidPosition, pos, end, m.tape.Len())
	}
	for _, r := range symbols {
		if !domain.Symbol(r).Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, r)
		}
	}
	for i, r := range symbols {
		_ = m.tape.Write(pos+i, domain.Symbol(r))
	}
	return m.tape.SetHead(end)
}

// SetState makes name the current state. The name must already be interned.
func (m *Machine) SetState(name string) error {
	code, ok := m.interner.Code(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownState, name)
	}
	m.state = code
	return nil
}

// Step executes one instruction.
//
// The step counter is incremented before the lookup, and a symbol written before
// the head leaves the tape stays written. The returned Outcome is Halted whenever
// the machine is halted after the call, errors included.
func (m *Machine) Step() (domain.Outcome, error) {
	if m.halted {
		return domain.Halted, domain.ErrMachineHalted
	}
	if m.program.Len() == 0 {
		return domain.Continued, domain.ErrEmptyProgram
	}

	m.steps++

	head := m.tape.Head()
	read, err := m.tape.Read(head)
	if err != nil {
		return m.outcome(), err
	}

	ins, ok := m.program.Lookup(m.state, read)
	if !ok {
		m.halt(domain.HaltReasonIllegal)
		return domain.Halted, fmt.Errorf("%w: no transition for (%s, %s)", domain.ErrIllegalInstruction, m.interner.Name(m.state), read)
	}

	_ = m.tape.Write(head, ins.Write)

	if err := m.tape.Move(ins.Dir); err != nil {
		m.halt(domain.HaltReasonOutOfBounds)
		return domain.Halted, fmt.Errorf("step %d: %w", m.steps, err)
	}

	from := m.state
	m.state = ins.To

	if m.hooks.OnStep != nil {
		m.hooks.OnStep(&domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStep, Step: m.steps},
			From:      m.interner.Name(from),
			Read:      read,
			To:        m.interner.Name(ins.To),
			Write:     ins.Write,
			Dir:       ins.Dir,
			Head:      m.tape.Head(),
		})
	}

	if m.state == domain.HaltState {
		m.halt(domain.HaltReasonHaltState)
		return domain.Halted, nil
	}
	return domain.Continued, nil
}

// StepNFunc executes up to n steps, stopping early when the machine halts or
// cancelled returns true. cancelled is polled before every step, as in RunFunc.
func (m *Machine) StepNFunc(n int, cancelled func() bool) (domain.Outcome, error) {
	outcome := m.outcome()
	for i := 0; i < n; i++ {
		if cancelled != nil && cancelled() {
			m.logger.Debug("Steps cancelled", "done", i, "requested", n, "steps", m.steps)
			return domain.Cancelled, nil
		}
		var err error
		outcome, err = m.Step()
		if err != nil || outcome == domain.Halted {
			return outcome, err
		}
	}
	return outcome, nil
}

// StepN is StepNFunc with ctx as the cancellation token.
func (m *Machine) StepN(ctx context.Context, n int) (domain.Outcome, error) {
	return m.StepNFunc(n, func() bool { return ctx.Err() != nil })
}

// RunFunc steps until the machine halts, a step fails or cancelled returns true.
// cancelled is polled once before every step, never mid-step.
func (m *Machine) RunFunc(cancelled func() bool) (domain.Outcome, error) {
	if m.halted {
		return domain.Halted, domain.ErrMachineHalted
	}
	if m.program.Len() == 0 {
		return domain.Continued, domain.ErrEmptyProgram
	}
	for {
		if cancelled != nil && cancelled() {
			m.logger.Debug("Run cancelled", "steps", m.steps, "state", m.interner.Name(m.state))
			return domain.Cancelled, nil
		}
		outcome, err := m.Step()
		if err != nil || outcome == domain.Halted {
			return outcome, err
		}
	}
}

// Run is RunFunc with ctx as the cancellation token.
func (m *Machine) Run(ctx context.Context) (domain.Outcome, error) {
	return m.RunFunc(func() bool { return ctx.Err() != nil })
}

// Lookup returns the instruction that would fire for (state, symbol).
func (m *Machine) Lookup(state string, symbol domain.Symbol) (domain.InstructionText, bool) {
	code, ok := m.interner.Code(state)
	if !ok {
		return domain.InstructionText{}, false
	}
	ins, ok := m.program.Lookup(code, symbol)
	if !ok {
		return domain.InstructionText{}, false
	}
	return m.text(ins), true
}

// Tape returns the raw tape contents.
func (m *Machine) Tape() string { return m.tape.String() }

// TapeLength returns the number of tape cells.
func (m *Machine) TapeLength() int { return m.tape.Len() }

// MemorySize is an alias of TapeLength, named after the program-file directive.
func (m *Machine) MemorySize() int { return m.tape.Len() }

// InitialSymbol returns the tape fill symbol.
func (m *Machine) InitialSymbol() domain.Symbol { return m.tape.Fill() }

// Head returns the head position.
func (m *Machine) Head() int { return m.tape.Head() }

// State returns the current state name.
func (m *Machine) State() string { return m.interner.Name(m.state) }

// Steps returns the step counter.
func (m *Machine) Steps() int { return m.steps }

// Halted reports whether the machine must be reset before stepping.
func (m *Machine) Halted() bool { return m.halted }

// Status returns the coarse machine status.
func (m *Machine) Status() domain.MachineStatus {
	if m.halted {
		return domain.StatusHalted
	}
	return domain.StatusReady
}

// States returns the interned state names in code order.
func (m *Machine) States() []string { return m.interner.Names() }

// Instructions returns the program in store order.
func (m *Machine) Instructions() []domain.InstructionText {
	all := m.program.Instructions()
	out := make([]domain.InstructionText, len(all))
	for i, ins := range all {
		out[i] = m.text(ins)
	}
	return out
}

// ProgramLen returns the number of stored instructions.
func (m *Machine) ProgramLen() int { return m.program.Len() }

func (m *Machine) outcome() domain.Outcome {
	if m.halted {
		return domain.Halted
	}
	return domain.Continued
}

func (m *Machine) halt(reason domain.HaltReason) {
	m.halted = true
	m.logger.Debug("Machine halted", "reason", reason, "state", m.interner.Name(m.state), "steps", m.steps, "head", m.tape.Head())
	if m.hooks.OnHalt != nil {
		m.hooks.OnHalt(&domain.HaltEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventHalt, Step: m.steps},
			State:     m.interner.Name(m.state),
			Reason:    reason,
			Head:      m.tape.Head(),
		})
	}
}

func (m *Machine) checkMemorySize(n int) error {
	if n <= 0 || n > m.maxMemory {
		return fmt.Errorf("%w: %d cells (allowed 1..%d)", domain.ErrAllocationFailure, n, m.maxMemory)
	}
	return nil
}

func (m *Machine) text(ins *domain.Instruction) domain.InstructionText {
	return domain.InstructionText{
		From:  m.interner.Name(ins.From),
		Read:  ins.Read,
		To:    m.interner.Name(ins.To),
		Write: ins.Write,
		Dir:   ins.Dir,
	}
}
