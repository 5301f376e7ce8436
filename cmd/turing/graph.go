package main

import (
	"fmt"

	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <program>",
	Short: "Export the state diagram of a program",
	Long:  `Loads a program file and outputs a Mermaid state diagram of its live transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, _, err := newEngine(cmd, args)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.States(), engine.LiveInstructions(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
