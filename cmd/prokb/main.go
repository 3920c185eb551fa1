// Command prokb builds and queries the pro content knowledge base.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/prokb/internal/adapters/driving/cli"
	"github.com/custodia-labs/prokb/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx, version, buildServices)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
