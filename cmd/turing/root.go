package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/progfile"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turing [program]",
	Short: "turing is a single-tape deterministic Turing machine simulator",
	Long: `turing runs Turing machine programs from an interactive command line.

Without arguments it starts the REPL; type 'help' for the command list.
Input piped on stdin is executed line by line without a prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{Config: cfg, Debug: cfg.Debug}
		if len(args) > 0 {
			opts.ProgramPath = args[0]
		}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		return cli.RunSession(cmd.Context(), opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (default ./"+config.DefaultFile+" when present)")
	flags.Bool("debug", false, "Log engine activity to stderr")
	flags.Int("memsize", 0, "Tape length (overrides the config file)")
	flags.String("initsymbol", "", "Tape fill symbol (overrides the config file)")
	flags.Int("window", 0, "Tape radius shown by print_state (overrides the config file)")
	flags.String("session-dir", "", "Directory of the file checkpoint store")
	flags.String("redis-url", "", "Store checkpoints in Redis, e.g. redis://localhost:6379/0")

	rootCmd.Flags().String("session", "", "Resume (or create) a checkpointed session, saved after every command")
	rootCmd.Flags().Bool("fresh", false, "Discard the session before starting")
	rootCmd.Flags().Bool("watch", false, "Reload the program file whenever it changes")
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("memsize") {
		cfg.MemorySize, _ = flags.GetInt("memsize")
	}
	if flags.Changed("initsymbol") {
		cfg.InitialSymbol, _ = flags.GetString("initsymbol")
	}
	if flags.Changed("window") {
		cfg.Window, _ = flags.GetInt("window")
	}
	if flags.Changed("session-dir") {
		cfg.SessionDir, _ = flags.GetString("session-dir")
	}
	if flags.Changed("redis-url") {
		cfg.Redis.URL, _ = flags.GetString("redis-url")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logging.ForDebug(cfg.Debug).Debug("Configuration loaded", "path", path, "memsize", cfg.MemorySize, "redis", cfg.Redis.URL != "")
	return cfg, nil
}

// newLogger logs to stderr at Info level, or Debug when cfg.Debug is set.
func newLogger(cfg config.Config) *slog.Logger {
	if cfg.Debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}

// newEngine builds an engine from the configuration and preloads the program
// named by the first argument, if any. Malformed program lines are logged and
// skipped; a missing file is an error.
func newEngine(cmd *cobra.Command, args []string, extra ...domain.LifecycleHooks) (*turing.Engine, config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, nil, err
	}
	logger := newLogger(cfg)
	engine, err := cli.NewEngine(cfg, logger, cfg.Debug, extra...)
	if err != nil {
		return nil, cfg, logger, err
	}
	if len(args) == 0 {
		return engine, cfg, logger, nil
	}

	if err := engine.LoadProgram(args[0]); err != nil {
		var loadErr *progfile.LoadError
		if !errors.As(err, &loadErr) {
			return nil, cfg, logger, err
		}
		for _, le := range loadErr.Lines {
			logger.Warn("Skipped program line", "path", args[0], "line", le.Line, "error", le.Err)
		}
	}
	return engine, cfg, logger, nil
}
