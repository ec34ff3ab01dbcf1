package main

import (
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [manifest]",
	Short: "Serve the graph over HTTP",
	Long: `Exposes POST /invoke, POST /stream, GET /graph, the /sessions endpoints and
Prometheus metrics on /metrics. Stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{EngineOptions: engineOptions(cmd)}
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			opts.File = args[0]
		}
		port, _ := cmd.Flags().GetString("port")
		opts.Addr = ":" + port
		opts.RedisAddr, _ = cmd.Flags().GetString("redis")
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.Serve(sigCtx, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for sessions (default: in memory)")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
}
