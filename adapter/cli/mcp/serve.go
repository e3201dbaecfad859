package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/eventline/internal/mcp"
	"github.com/spf13/cobra"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the timeline tools over MCP streamable HTTP.

Set MCP_AUTH_TOKEN to require a bearer token from clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}

		cfg := *app.Config
		if addr != "" {
			cfg.MCPAddr = addr
		}

		err = mcpinternal.Serve(cmd.Context(), &cfg, app, cli.Logger())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides MCP_ADDR)")
}
