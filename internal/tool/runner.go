// Package tool runs the external analysis and formatting programs cdbtidy drives.
package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for the program's output pipes to close
// after it has been killed.
const waitDelay = 2 * time.Second

// Invocation describes one blocking run of an external program.
type Invocation struct {
	Name   string
	Args   []string
	Dir    string // working directory; empty means the calling process's
	Stdout io.Writer
	Stderr io.Writer
}

// String returns the command line in a form suitable for logs.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Name}, i.Args...), " ")
}

// Runner runs external programs to completion.
type Runner interface {
	// Run blocks until the program exits or ctx is done. A program that ran
	// and exited non-zero is reported as *ExitError; one that could not be
	// found as *NotFoundError.
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct {
	lookPath func(file string) (string, error)
}

// NewExecRunner creates a new ExecRunner which resolves programs on PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{lookPath: exec.LookPath}
}

// Run executes the invocation and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	path, err := r.lookPath(resolveName(inv.Name, inv.Dir))
	if err != nil {
		return &NotFoundError{Name: inv.Name, Wrapped: err}
	}

	//nolint:gosec // the command line comes from the user's own configuration
	cmd := exec.CommandContext(ctx, path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	cmd.WaitDelay = waitDelay
	killProcessGroupOnCancel(cmd)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s interrupted: %w", inv.Name, ctxErr)
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Command: inv.String(), Code: ee.ExitCode(), Wrapped: err}
		}
		return fmt.Errorf("failed to run %s: %w", inv.Name, err)
	}
	return nil
}

// resolveName anchors a relative command such as ./tools/tidy to dir, which is
// where the program will run. Bare names are left for the PATH search.
func resolveName(name, dir string) string {
	hasSeparator := strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator)
	if dir == "" || !hasSeparator || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// ExitCode reports the exit status carried by err: 0 for nil, the program's
// status for *ExitError and -1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}
