package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/internal/metrics"
	turinghttp "github.com/aretw0/turing/pkg/adapters/http"
	"github.com/aretw0/turing/pkg/command"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [program]",
	Short: "Start the HTTP server",
	Long: `Starts a single machine behind a JSON API over HTTP.
Machine events stream on /events and Prometheus metrics are served on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		maxRun, _ := cmd.Flags().GetDuration("max-run-timeout")
		corsOrigin, _ := cmd.Flags().GetString("cors-origin")

		collector := metrics.New()
		streams := turinghttp.NewStreamManager(nil)

		engine, cfg, logger, err := newEngine(cmd, args, collector.Hooks(), streams.Hooks())
		if err != nil {
			return err
		}

		mgr, closeStore, err := cli.NewSessionManager(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		handler := turinghttp.NewHandler(engine,
			turinghttp.WithWindow(cfg.Window),
			turinghttp.WithMaxRunTimeout(maxRun),
			turinghttp.WithAllowedOrigin(corsOrigin),
			turinghttp.WithMetrics(collector),
			turinghttp.WithStreams(streams),
			turinghttp.WithLogger(logger),
			turinghttp.WithInterpreterOptions(command.WithSessions(mgr)),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Turing Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Turing Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("max-run-timeout", turinghttp.DefaultRunTimeout, "Longest run a client may request on POST /run")
	serveCmd.Flags().String("cors-origin", "", "Browser origin allowed to call the API (none by default)")
}
