package main

import (
	"fmt"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [manifest]",
	Short: "Export the graph as a Mermaid flowchart",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := engineOptions(cmd)
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			opts.File = args[0]
		}

		engine, err := cli.LoadEngine(opts)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(engine.Graph(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
