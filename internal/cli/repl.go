package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/command"
)

// Prompt is printed before every line in interactive mode.
const Prompt = "cmd> "

// REPL reads command lines and feeds them to an interpreter.
//
// An interrupt received while a command runs cancels that command only; an
// interrupt received while waiting for input ends the loop.
type REPL struct {
	interp      *command.Interpreter
	in          io.Reader
	out         io.Writer
	interactive bool
	interrupts  <-chan os.Signal
	reloads     <-chan struct{}
	onReload    func() error
	afterExec   func(ctx context.Context) error
	errorStyle  func(string) string
	logger      *slog.Logger
}

// REPLOption configures a REPL.
type REPLOption func(*REPL)

// WithInteractive enables the prompt.
func WithInteractive(interactive bool) REPLOption {
	return func(r *REPL) {
		r.interactive = interactive
	}
}

// WithInterrupts sets the interrupt source, usually fed by signal.Notify.
func WithInterrupts(ch <-chan os.Signal) REPLOption {
	return func(r *REPL) {
		r.interrupts = ch
	}
}

// WithReloads calls reload whenever ch fires. A running command is cancelled first.
func WithReloads(ch <-chan struct{}, reload func() error) REPLOption {
	return func(r *REPL) {
		r.reloads = ch
		r.onReload = reload
	}
}

// WithAfterExec registers a callback run after every command, e.g. to checkpoint the machine.
func WithAfterExec(fn func(ctx context.Context) error) REPLOption {
	return func(r *REPL) {
		r.afterExec = fn
	}
}

// WithErrorStyle decorates error messages.
func WithErrorStyle(style func(string) string) REPLOption {
	return func(r *REPL) {
		r.errorStyle = style
	}
}

// WithREPLLogger sets the logger.
func WithREPLLogger(logger *slog.Logger) REPLOption {
	return func(r *REPL) {
		r.logger = logger
	}
}

// NewREPL creates a REPL reading from in and writing prompts and errors to out.
func NewREPL(interp *command.Interpreter, in io.Reader, out io.Writer, opts ...REPLOption) *REPL {
	r := &REPL{
		interp:     interp,
		in:         in,
		out:        out,
		errorStyle: func(s string) string { return s },
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type inputLine struct {
	text string
	err  error
	eof  bool
}

// Run loops until quit, end of input, an idle interrupt or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan inputLine)
	next := make(chan struct{})
	go r.scan(lines, next)
	defer close(next)

	for {
		r.prompt()
		next <- struct{}{}

		var line inputLine
	wait:
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-r.interrupts:
				if r.interactive {
					fmt.Fprintln(r.out, "[CTRL+C]")
				}
				r.logger.Debug("Interrupted while idle")
				return nil
			case <-r.reloads:
				r.reload()
			case line = <-lines:
				break wait
			}
		}

		if line.eof {
			if r.interactive {
				fmt.Fprintln(r.out)
			}
			return line.err
		}
		if quit := r.exec(ctx, line.text); quit {
			return nil
		}
	}
}

// scan reads one line each time next is signalled, so input is never consumed
// ahead of the command being executed.
func (r *REPL) scan(lines chan<- inputLine, next <-chan struct{}) {
	scanner := bufio.NewScanner(r.in)
	for range next {
		if !scanner.Scan() {
			err := scanner.Err()
			select {
			case lines <- inputLine{eof: true, err: err}:
			case <-next:
			}
			return
		}
		select {
		case lines <- inputLine{text: scanner.Text()}:
		case <-next:
			return
		}
	}
}

func (r *REPL) exec(ctx context.Context, line string) (quit bool) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.interp.Exec(runCtx, line) }()

	var err error
	reload := false
wait:
	for {
		select {
		case err = <-done:
			break wait
		case <-r.interrupts:
			r.logger.Debug("Interrupting command", "line", line)
			cancel()
		case <-r.reloads:
			reload = true
			cancel()
		}
	}

	if errors.Is(err, command.ErrQuit) {
		return true
	}
	if err != nil {
		r.printError(err)
	}
	if r.afterExec != nil {
		if err := r.afterExec(ctx); err != nil {
			r.printError(err)
		}
	}
	if reload {
		r.reload()
	}
	return false
}

func (r *REPL) reload() {
	if r.onReload == nil {
		return
	}
	if err := r.onReload(); err != nil {
		r.printError(err)
	}
}

func (r *REPL) prompt() {
	if r.interactive {
		fmt.Fprint(r.out, Prompt)
	}
}

func (r *REPL) printError(err error) {
	fmt.Fprintln(r.out, r.errorStyle("Error: "+err.Error()))
}
