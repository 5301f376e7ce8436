package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/pkg/session"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage machine checkpoints",
	Long: `List, inspect, and remove the sessions saved by 'turing --session' and the
checkpoint command. Sessions live in session_dir, or in Redis when redis.url is set.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(mgr *session.Manager) error {
			sessions, err := mgr.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No active sessions found.")
				return nil
			}

			fmt.Fprintln(out, "Active Sessions:")
			for _, s := range sessions {
				fmt.Fprintln(out, "- "+s)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		asYAML, _ := cmd.Flags().GetBool("yaml")

		return withSessions(cmd, func(mgr *session.Manager) error {
			snap, err := mgr.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}

			var data []byte
			if asYAML {
				data, err = yaml.Marshal(snap)
			} else {
				data, err = json.MarshalIndent(snap, "", "  ")
				data = append(data, '\n')
			}
			if err != nil {
				return fmt.Errorf("error marshaling snapshot: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		return withSessions(cmd, func(mgr *session.Manager) error {
			ids := args
			if all {
				var err error
				if ids, err = mgr.List(cmd.Context()); err != nil {
					return fmt.Errorf("error listing sessions: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, sessionID := range ids {
				if err := mgr.Delete(cmd.Context(), sessionID); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
					failed++
				} else {
					fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d session(s) could not be removed", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("yaml", false, "Print YAML instead of JSON")
	sessionRmCmd.Flags().Bool("all", false, "Remove every saved session")
}

// withSessions opens the configured checkpoint store for the duration of fn.
func withSessions(cmd *cobra.Command, fn func(*session.Manager) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	mgr, closeStore, err := cli.NewSessionManager(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(mgr)
}
