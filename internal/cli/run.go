package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/pkg/command"
	"github.com/aretw0/turing/pkg/domain"
)

// RunOptions contains all the configuration for the REPL and batch runs.
type RunOptions struct {
	Config      config.Config
	ProgramPath string
	Watch       bool
	SessionID   string
	Fresh       bool
	Debug       bool

	// Batch runs only.
	Tape     string
	TapePos  int // -1 writes the tape text starting at the head
	MaxSteps int // 0 means unbounded
	Full     bool

	In  io.Reader
	Out io.Writer
}

func (o *RunOptions) streams() (io.Reader, io.Writer) {
	in, out := o.In, o.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

// ErrStepLimit is returned by RunBatch when MaxSteps is reached before the machine halts.
var ErrStepLimit = errors.New("step limit reached")

// RunBatch loads a program, runs it until it halts and prints the final status.
// SIGINT and SIGTERM cancel the run.
func RunBatch(opts RunOptions) error {
	_, out := opts.streams()
	logger := createLogger(opts.Debug)

	engine, err := NewEngine(opts.Config, logger, opts.Debug)
	if err != nil {
		return err
	}
	if err := engine.LoadProgram(opts.ProgramPath); err != nil {
		return err
	}
	if opts.Tape != "" {
		pos := opts.TapePos
		if pos < 0 {
			pos = engine.Head()
		}
		if err := engine.SetTape(pos, opts.Tape); err != nil {
			return err
		}
		// The head starts where the input starts.
		if err := engine.SetHeadPosition(pos); err != nil {
			return err
		}
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	outcome, runErr := engine.RunFunc(func() bool {
		if sigCtx.Err() != nil {
			return true
		}
		return opts.MaxSteps > 0 && engine.Steps() >= opts.MaxSteps
	})

	switch {
	case runErr != nil:
	case outcome == domain.Halted:
		fmt.Fprintln(out, command.MsgHalted)
	case sigCtx.Signal() != nil:
		printSystemMessage(out, "Interrupted after %d steps.", engine.Steps())
	default:
		runErr = fmt.Errorf("%w: %d", ErrStepLimit, opts.MaxSteps)
	}

	radius := opts.Config.Window
	if opts.Full {
		radius = -1
	}
	fmt.Fprint(out, engine.StatusSummary(radius))
	return runErr
}
