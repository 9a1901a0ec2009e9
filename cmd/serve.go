package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/mcp"
	"github.com/xkilldash9x/tourscout/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		stdio bool
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP and WebSocket, or as MCP tools on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if addr != "" {
				a.cfg.SetServerListenAddr(addr)
			}
			components, err := a.components(ctx)
			if err != nil {
				return err
			}
			defer components.Shutdown()

			if stdio {
				// Stdout carries the protocol; logs stay on stderr.
				logger.Info("Serving MCP tools on stdio", zap.Bool("mock", a.cfg.Server().Mock))
				return mcp.ServeStdio(ctx, mcp.NewToolServer(components.Service, logger, Version), cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			}

			logger.Info("Serving tour search API",
				zap.String("address", a.cfg.Server().ListenAddr),
				zap.Bool("mock", a.cfg.Server().Mock))
			// The command context carries SIGINT and SIGTERM from main.
			return mcp.NewServer(a.cfg.Server(), components.Service, logger, Version).Run(ctx)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.listen_addr)")
	serveCmd.Flags().BoolVar(&stdio, "stdio", false, "Speak MCP over stdin and stdout instead of HTTP")
	return serveCmd
}
