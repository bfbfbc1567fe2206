package main

import (
	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <definition>",
	Short: "Run the Model Context Protocol (MCP) server for a sweep",
	Long: `Exposes a sweep to MCP clients such as AI agents. The server offers read-only
tools: plan, validate, status and list_progress, plus the plan and the saved
progress as resources. It never starts a run.

Supported Transports:
- stdio (default): JSON-RPC over Standard Input/Output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote clients.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		logLevel, _ := cmd.Flags().GetString("log-level")
		logFormat, _ := cmd.Flags().GetString("log-format")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		return cli.ServeMCP(ctx, cli.MCPOptions{
			Path:      args[0],
			Transport: transport,
			Addr:      addr,
			Progress:  progressOptions(cmd),
			LogLevel:  logLevel,
			LogFormat: logFormat,
			Stdin:     cmd.InOrStdin(),
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "localhost:8080", "Address to listen on (only for SSE)")
	addProgressFlags(mcpCmd)
}
