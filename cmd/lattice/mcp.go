package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [manifest]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the graph as the MCP tool "invoke_graph", its flowchart as the
resource "graph://mermaid", and the built-in tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.MCPOptions{EngineOptions: engineOptions(cmd)}
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			opts.File = args[0]
		}
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Port, _ = cmd.Flags().GetInt("port")
		opts.RedisAddr, _ = cmd.Flags().GetString("redis")
		opts.LogLevel, _ = cmd.Flags().GetString("log-level")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.ServeMCP(sigCtx, opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("redis", "", "Redis address for sessions (default: in memory)")
	mcpCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
}
