package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice runs directed graphs of nodes over shared channels",
	Long: `Lattice executes graph manifests: nodes read a State snapshot, return partial
updates merged by channel reducers, and static edges or routers pick what runs next.

Stored sessions honour two environment variables:
  LATTICE_ENCRYPTION_KEY  hex AES-256 key(s), comma separated; the first encrypts
  LATTICE_REDACT_KEYS     comma separated patterns of channels masked before saving`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "lattice.yaml", "Graph manifest")
	rootCmd.PersistentFlags().Int("max-steps", 0, "Step budget per run (default: manifest max_steps, else 25)")
	rootCmd.PersistentFlags().Int("concurrency", 1, "Nodes of one tick allowed to run in parallel")
	rootCmd.PersistentFlags().Bool("strict", false, "Evaluate every router twice and fail on disagreement")
}

// engineOptions reads the persistent engine flags.
func engineOptions(cmd *cobra.Command) cli.EngineOptions {
	file, _ := cmd.Flags().GetString("file")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	strict, _ := cmd.Flags().GetBool("strict")
	return cli.EngineOptions{
		File:        file,
		MaxSteps:    maxSteps,
		Concurrency: concurrency,
		Strict:      strict,
	}
}
