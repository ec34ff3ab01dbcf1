package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check the graph for consistency",
	Long:  `Compiles the manifest and reports every structural issue: dangling edges, unreachable nodes, dead ends and invalid route candidates.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := engineOptions(cmd)
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			opts.File = args[0]
		}

		engine, err := cli.LoadEngine(opts)
		var buildErr *domain.BuildError
		if errors.As(err, &buildErr) {
			for _, issue := range buildErr.Issues {
				fmt.Fprintln(cmd.ErrOrStderr(), "  -", issue.String())
			}
			return fmt.Errorf("validation failed: %d issue(s)", len(buildErr.Issues))
		}
		if err != nil {
			return err
		}

		g := engine.Graph()
		fmt.Fprintf(cmd.OutOrStdout(), "Graph %q is valid: %d nodes, %d edges, %d routes.\n",
			g.Name(), len(g.Nodes()), len(g.Edges()), len(g.ConditionalEdges()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
