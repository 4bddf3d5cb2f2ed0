package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mergemaster/cmd/mergemaster/cli"
)

var (
	version = "dev"
)

// Entry point for the application
func main() {
	// Ctrl+C stops between files, never inside one
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}
