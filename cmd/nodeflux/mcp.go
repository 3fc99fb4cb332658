package main

import (
	"github.com/spf13/cobra"

	"github.com/petrijr/nodeflux/internal/logging"
	"github.com/petrijr/nodeflux/internal/transport/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve every node as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dispatcher, err := buildDispatcher(ctx, a.cfg)
			if err != nil {
				return err
			}
			srv := mcpserver.NewServer(ctx, dispatcher, version, logging.New("mcp"))
			a.logger.Info("mcp server ready", "tools", len(srv.Tools()))
			return srv.Run(ctx)
		},
	}
}
