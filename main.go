package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/tourscout/cmd"
	"github.com/xkilldash9x/tourscout/internal/observability"
)

func main() {
	// Cancelled on Ctrl+C so open browser sessions are released.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}
