package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/presentation/tui"
	"github.com/aretw0/turing/pkg/command"
	"github.com/aretw0/turing/pkg/domain"
	"golang.org/x/term"
)

// RunSession executes an interactive (or piped) REPL session.
func RunSession(ctx context.Context, opts RunOptions) error {
	in, out := opts.streams()
	logger := createLogger(opts.Debug)
	interactive := isTerminal(in)

	if opts.Watch && opts.ProgramPath == "" {
		return errors.New("--watch requires a program file")
	}

	if interactive {
		tui.PrintBanner(out, turing.Version)
	}

	engine, err := NewEngine(opts.Config, logger, opts.Debug)
	if err != nil {
		return err
	}
	if opts.ProgramPath != "" {
		if err := engine.LoadProgram(opts.ProgramPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return err
			}
			// Malformed lines are reported; the rest of the program is usable.
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}

	mgr, closeStore, err := NewSessionManager(opts.Config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.SessionID != "" {
		if opts.Fresh {
			if err := mgr.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("failed to reset session: %w", err)
			}
		}
		snap, created, err := mgr.LoadOrStart(ctx, opts.SessionID, engine.Snapshot())
		if err != nil {
			return fmt.Errorf("failed to init session: %w", err)
		}
		if !created {
			if err := engine.Restore(*snap); err != nil {
				return fmt.Errorf("failed to resume session: %w", err)
			}
		}
		logSessionStatus(out, logger, opts.SessionID, snap, created, !interactive)
	}

	styler := tui.NewStyler(out)
	render := tui.PlainRenderer
	if interactive {
		render = tui.NewRenderer()
	}
	interp := command.New(engine, out,
		command.WithWindow(opts.Config.Window),
		command.WithSessions(mgr),
		command.WithRenderer(render),
		command.WithStatusStyle(styler.Status),
		command.WithLogger(logger),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	replOpts := []REPLOption{
		WithInteractive(interactive),
		WithInterrupts(sigCh),
		WithErrorStyle(styler.Error),
		WithREPLLogger(logger),
	}

	if opts.SessionID != "" {
		replOpts = append(replOpts, WithAfterExec(func(ctx context.Context) error {
			snap := engine.Snapshot()
			return mgr.Save(ctx, opts.SessionID, &snap)
		}))
	}

	if opts.Watch {
		watchCtx, stopWatch := context.WithCancel(ctx)
		defer stopWatch()
		changes, err := NewFileWatcher(opts.ProgramPath, logger).Watch(watchCtx)
		if err != nil {
			return err
		}
		logger.Info("Starting watcher", "path", opts.ProgramPath)
		printSystemMessage(out, "Watching '%s'.", opts.ProgramPath)
		replOpts = append(replOpts, WithReloads(changes, func() error {
			printSystemMessage(out, "Change detected in '%s', program reloaded.", opts.ProgramPath)
			return engine.LoadProgram(opts.ProgramPath)
		}))
	}

	err = NewREPL(interp, in, out, replOpts...).Run(ctx)

	if opts.SessionID != "" {
		snap := engine.Snapshot()
		// ctx may already be cancelled; the final checkpoint must still land.
		if saveErr := mgr.Save(context.WithoutCancel(ctx), opts.SessionID, &snap); saveErr != nil {
			return errors.Join(err, fmt.Errorf("failed to save session: %w", saveErr))
		}
		if interactive {
			printSystemMessage(out, "Session '%s' saved.", opts.SessionID)
		}
	}
	return err
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
