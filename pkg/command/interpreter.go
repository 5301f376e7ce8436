package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/progfile"
	"github.com/aretw0/turing/pkg/session"
	"github.com/google/uuid"
)

var (
	// ErrQuit is returned by the quit command. Callers stop reading input.
	ErrQuit = errors.New("quit")
	// ErrUnknownCommand is returned for a line starting with an unknown keyword.
	ErrUnknownCommand = errors.New("command not found")
	// ErrNoSessions is returned by checkpoint commands when no session manager is configured.
	ErrNoSessions = errors.New("checkpoints are not configured")
	// ErrLoadDepth is returned when load commands nest too deeply, e.g. a file loading itself.
	ErrLoadDepth = errors.New("load nesting too deep")
	// ErrFileIODisabled is returned by load and save on an interpreter built WithoutFileIO.
	ErrFileIODisabled = errors.New("file access is disabled")
)

// DefaultWindow is the tape radius shown by print_state.
const DefaultWindow = 50

const maxLoadDepth = 8

// Messages printed after execution.
const (
	MsgHalted  = "Machine reached halt state"
	MsgReset   = "Machine reset"
	MsgCleared = "Program cleared"
)

// Interpreter executes command lines against an engine.
// It is not safe for concurrent use.
type Interpreter struct {
	engine   *turing.Engine
	out      io.Writer
	window   int
	sessions *session.Manager
	render   func(string) (string, error)
	style    func(string) string
	logger   *slog.Logger
	depth    int
	noFileIO bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithWindow sets the tape radius of print_state.
func WithWindow(radius int) Option {
	return func(in *Interpreter) {
		in.window = radius
	}
}

// WithSessions enables the checkpoint, restore and sessions commands.
func WithSessions(m *session.Manager) Option {
	return func(in *Interpreter) {
		in.sessions = m
	}
}

// WithoutFileIO makes load and save fail with ErrFileIODisabled. Network
// front ends use it so remote callers cannot touch the host filesystem.
func WithoutFileIO() Option {
	return func(in *Interpreter) {
		in.noFileIO = true
	}
}

// WithRenderer sets the markdown renderer used by help.
func WithRenderer(render func(string) (string, error)) Option {
	return func(in *Interpreter) {
		in.render = render
	}
}

// WithStatusStyle decorates machine status output, e.g. with terminal colors.
func WithStatusStyle(style func(string) string) Option {
	return func(in *Interpreter) {
		in.style = style
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// New creates an Interpreter writing command output to out.
func New(engine *turing.Engine, out io.Writer, opts ...Option) *Interpreter {
	in := &Interpreter{
		engine: engine,
		out:    out,
		window: DefaultWindow,
		render: func(s string) (string, error) { return s, nil },
		style:  func(s string) string { return s },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Engine returns the engine driven by the interpreter.
func (in *Interpreter) Engine() *turing.Engine {
	return in.engine
}

// Exec executes one command line. ctx cancels run.
func (in *Interpreter) Exec(ctx context.Context, line string) error {
	t := progfile.NewTokenizer(line)
	cmd, ok := t.Next()
	if !ok {
		return nil
	}
	in.logger.Debug("Executing command", "command", cmd)

	switch cmd {
	case "echo":
		in.println(t.Rest())
	case "quit", "q":
		return ErrQuit
	case "help", "?":
		text, err := in.render(Usage)
		if err != nil {
			return fmt.Errorf("failed to render help: %w", err)
		}
		in.print(text)
	case "load", "read", "<":
		path, err := t.String()
		if err != nil {
			return err
		}
		if in.noFileIO {
			return fmt.Errorf("%w: load %s", ErrFileIODisabled, path)
		}
		return in.load(ctx, path)
	case "save", ">":
		path, err := t.String()
		if err != nil {
			return err
		}
		if in.noFileIO {
			return fmt.Errorf("%w: save %s", ErrFileIODisabled, path)
		}
		return in.engine.SaveProgram(path)
	case "step", "s":
		n := 1
		if t.More() {
			var err error
			if n, err = t.Uint(); err != nil {
				return err
			}
		}
		return in.report(in.engine.StepN(ctx, n))
	case "run", "r":
		return in.report(in.engine.Run(ctx))
	case "memsize", "memorysize":
		n, err := t.Uint()
		if err != nil {
			return err
		}
		return in.engine.SetMemorySize(n)
	case "initsymbol", "initialsymbol":
		s, err := t.Symbol()
		if err != nil {
			return err
		}
		return in.engine.SetInitialSymbol(s)
	case "move_head", "head_position":
		pos, err := t.Uint()
		if err != nil {
			return err
		}
		return in.engine.SetHeadPosition(pos)
	case "set_tape":
		pos, err := t.Uint()
		if err != nil {
			return err
		}
		text, err := t.String()
		if err != nil {
			return err
		}
		return in.engine.SetTape(pos, text)
	case "set_state":
		name, err := t.String()
		if err != nil {
			return err
		}
		return in.engine.SetState(name)
	case "print_state", "ps":
		in.print(in.style(in.engine.StatusSummary(in.window)))
	case "print_state_full", "psf":
		in.print(in.style(in.engine.StatusSummary(-1)))
	case "print_program", "pp":
		in.print(in.engine.ProgramListing())
	case "reset", "R":
		in.engine.Reset()
		in.println(MsgReset)
	case "add", "+":
		ins, err := t.Instruction()
		if err != nil {
			return err
		}
		return in.engine.AddInstruction(ins.From, ins.Read, ins.To, ins.Write, ins.Dir)
	case "del", "-":
		pos, err := t.Uint()
		if err != nil {
			return err
		}
		return in.engine.DeleteInstruction(pos)
	case "clear", "C":
		in.engine.ClearProgram()
		in.println(MsgCleared)
	case "graph":
		in.print(graph.GenerateMermaid(in.engine.States(), in.engine.LiveInstructions(), &graph.GraphOverlay{
			CurrentState: in.engine.State(),
			Halted:       in.engine.Halted(),
		}))
	case "checkpoint":
		id, _ := t.Next()
		return in.checkpoint(ctx, id)
	case "restore":
		id, err := t.String()
		if err != nil {
			return err
		}
		return in.restore(ctx, id)
	case "sessions":
		return in.listSessions(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return nil
}

// ExecScript executes every line read from r. Failing lines are collected into
// a *progfile.LoadError named after name and do not stop the script; quit and
// context cancellation do.
func (in *Interpreter) ExecScript(ctx context.Context, name string, r io.Reader) error {
	var lineErrs []*progfile.LineError
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		err := in.Exec(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return err
		}
		if err != nil {
			lineErrs = append(lineErrs, &progfile.LineError{Line: n, Text: scanner.Text(), Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(lineErrs) > 0 {
		return &progfile.LoadError{Path: name, Lines: lineErrs}
	}
	return nil
}

func (in *Interpreter) load(ctx context.Context, path string) error {
	if in.depth >= maxLoadDepth {
		return fmt.Errorf("%w: %s", ErrLoadDepth, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	in.depth++
	defer func() { in.depth-- }()
	return in.ExecScript(ctx, path, f)
}

// report prints the outcome of step and run.
func (in *Interpreter) report(outcome domain.Outcome, err error) error {
	if err != nil {
		return err
	}
	switch outcome {
	case domain.Halted:
		in.println(MsgHalted)
	case domain.Cancelled:
		in.println(fmt.Sprintf("Interrupted after %d steps", in.engine.Steps()))
	}
	return nil
}

func (in *Interpreter) checkpoint(ctx context.Context, id string) error {
	if in.sessions == nil {
		return ErrNoSessions
	}
	if id == "" {
		id = uuid.NewString()
	}
	snap := in.engine.Snapshot()
	if err := in.sessions.Save(ctx, id, &snap); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	in.println(fmt.Sprintf("Checkpoint %s saved", id))
	return nil
}

func (in *Interpreter) restore(ctx context.Context, id string) error {
	if in.sessions == nil {
		return ErrNoSessions
	}
	snap, err := in.sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint %s: %w", id, err)
	}
	if err := in.engine.Restore(*snap); err != nil {
		return fmt.Errorf("failed to restore checkpoint %s: %w", id, err)
	}
	in.println(fmt.Sprintf("Checkpoint %s restored", id))
	return nil
}

func (in *Interpreter) listSessions(ctx context.Context) error {
	if in.sessions == nil {
		return ErrNoSessions
	}
	ids, err := in.sessions.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		in.println("No checkpoints")
		return nil
	}
	for _, id := range ids {
		in.println(id)
	}
	return nil
}

func (in *Interpreter) print(s string) {
	fmt.Fprint(in.out, s)
}

func (in *Interpreter) println(s string) {
	fmt.Fprintln(in.out, s)
}
