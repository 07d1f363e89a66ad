package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := exitCode(ctx, rootCmd.ExecuteContext(ctx))
	cancel()
	os.Exit(code)
}

// exitCode maps a command result to the process status. Runs cut short by a
// signal exit 130.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
