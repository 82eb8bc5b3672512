package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lashkaryadi/get-me-a-tutor/internal/cli"
)

// Set at build time via ldflags.
var (
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+cli.ErrorMessage(err))
		os.Exit(1)
	}
}

func run() error {
	cli.SetBuildInfo(commit, buildTime)

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return cli.Execute(ctx)
}
