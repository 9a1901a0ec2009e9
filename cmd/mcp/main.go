// Command mcp runs only the tour search server: HTTP by default, or MCP
// tools over stdin and stdout with --stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/config"
	"github.com/xkilldash9x/tourscout/internal/mcp"
	"github.com/xkilldash9x/tourscout/internal/observability"
	"github.com/xkilldash9x/tourscout/internal/service"
)

var version = "dev"

func main() {
	port := flag.Int("port", 8080, "Port for the server to listen on")
	// Localhost by default; the API drives a real browser.
	host := flag.String("host", "127.0.0.1", "Host address to listen on (use 0.0.0.0 for all interfaces)")
	mock := flag.Bool("mock", false, "Serve canned listings instead of driving a browser")
	stdio := flag.Bool("stdio", false, "Speak MCP over stdin and stdout instead of HTTP")
	flag.Parse()

	v := viper.New()
	config.SetDefaults(v)
	v.SetEnvPrefix("TOURSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		log.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.SetServerListenAddr(fmt.Sprintf("%s:%d", *host, *port))
	if *mock {
		cfg.SetServerMock(true)
	}

	observability.InitializeLogger(cfg.Logger())
	defer observability.Sync()
	logger := observability.GetLogger()

	// The browser allocator lives as long as this context.
	components, err := service.NewComponentFactory().Create(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize server components", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
	defer components.Shutdown()

	if *stdio {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		tools := mcp.NewToolServer(components.Service, logger, version)
		if err := mcp.ServeStdio(ctx, tools, os.Stdin, os.Stdout, logger); err != nil && ctx.Err() == nil {
			logger.Error("MCP stdio server stopped with error", zap.Error(err))
		}
		return
	}

	// Blocks until SIGINT or SIGTERM.
	if err := mcp.NewServer(cfg.Server(), components.Service, logger, version).Start(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
