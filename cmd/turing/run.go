package main

import (
	"github.com/aretw0/turing/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Run a program until it halts",
	Long: `Loads a program file, optionally writes input onto the tape, and runs the
machine until it halts. The final status is printed when the run ends.

Example:
  turing run add.tm --tape 111_11 --max-steps 10000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{
			Config:      cfg,
			ProgramPath: args[0],
			Debug:       cfg.Debug,
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
		}
		opts.Tape, _ = cmd.Flags().GetString("tape")
		opts.TapePos, _ = cmd.Flags().GetInt("at")
		opts.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
		opts.Full, _ = cmd.Flags().GetBool("full")
		return cli.RunBatch(opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("tape", "", "Input written onto the tape before the run ('-' keeps a cell)")
	runCmd.Flags().Int("at", -1, "Tape position of the input, 0-based (default: the head)")
	runCmd.Flags().Int("max-steps", 0, "Stop with an error after this many steps (0: unbounded)")
	runCmd.Flags().Bool("full", false, "Print the whole tape instead of the window around the head")
}
