package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prd-manager/internal/di"
)

// Version information (set by build flags)
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()

	container.CLI.RootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)",
		BuildVersion, BuildCommit, BuildDate)

	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
	defer healthCancel()

	if err := container.HealthCheck(healthCtx); err != nil {
		container.Logger.Warn("health check failed", "error", err)
	}

	// Error already formatted by CLI
	if err := container.CLI.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
