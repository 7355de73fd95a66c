package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/andyballingall/cdbtidy/internal/app"
)

// exitInterrupted is the shell convention for a process stopped by SIGINT.
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(ctx, os.Args, os.Stdout, os.Stderr, nil)
	interrupted := errors.Is(ctx.Err(), context.Canceled)
	stop()
	switch {
	case err == nil:
	case interrupted:
		os.Exit(exitInterrupted) //nolint:gocritic // deferred stop has already run
	default:
		os.Exit(1)
	}
}
