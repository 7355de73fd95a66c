package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/andyballingall/cdbtidy/internal/fs"
)

func Run(ctx context.Context, args []string, stdout, stderr io.Writer, envProvider fs.EnvProvider) error {
	logLevel := &slog.LevelVar{}
	logLevel.Set(slog.LevelInfo)

	// Local lazy instance ensures t.Parallel() safety
	lazy := &LazyManager{}

	if envProvider == nil {
		envProvider = fs.OSEnv{}
	}

	rootCmd := NewRootCmd(lazy, logLevel, stdout, stderr, envProvider)
	rootCmd.SetArgs(args[1:]) // Skip the program name
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print errors to stderr for script tests and CLI users (SilenceErrors is set).
		// A pass can fail and fail to clean up, so joined errors get a line each.
		for _, e := range flatten(err) {
			fmt.Fprintf(stderr, "Error: %v\n", e)
		}
		return err
	}

	return nil
}

// flatten expands errors combined with errors.Join.
func flatten(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error }) //nolint:errorlint // only the top-level join is expanded
	if !ok {
		return []error{err}
	}
	var errs []error
	for _, e := range joined.Unwrap() {
		errs = append(errs, flatten(e)...)
	}
	return errs
}
