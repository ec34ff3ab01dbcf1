package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [manifest]",
	Short: "Run a graph to completion",
	Long: `Loads a manifest, runs it from START and prints one line per tick.
The terminal State (or the conversation transcript) is printed at the end.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{EngineOptions: engineOptions(cmd)}
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			opts.File = args[0]
		}
		opts.Input, _ = cmd.Flags().GetString("input")
		opts.Set, _ = cmd.Flags().GetStringArray("set")
		opts.Mode, _ = cmd.Flags().GetString("mode")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.RedisAddr, _ = cmd.Flags().GetString("redis")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		err := cli.Execute(sigCtx, opts, os.Stdout)
		if sig := sigCtx.Signal(); sig != nil {
			fmt.Fprintf(os.Stderr, "\nInterrupted (%s).\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("input", "", "Initial State as a JSON object")
	runCmd.Flags().StringArray("set", nil, "Initial channel value as key=value (repeatable)")
	runCmd.Flags().String("mode", "values", "Stream mode: values or updates")
	runCmd.Flags().Bool("headless", false, "Print only the terminal State")
	runCmd.Flags().Bool("json", false, "Print events as NDJSON")
	runCmd.Flags().Bool("debug", false, "Log run and node lifecycle to stderr")
	runCmd.Flags().BoolP("watch", "w", false, "Run again whenever the manifest changes")
	runCmd.Flags().String("session", "", "Continue this conversation thread")
	runCmd.Flags().String("redis", "", "Redis address for sessions (default: in memory)")
}
