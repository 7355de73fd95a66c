// Package tidy runs one tidy pass: it writes a transient compilation database,
// runs the external tidy tool against it and retires the generated artefacts.
package tidy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/andyballingall/cdbtidy/internal/compdb"
	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/fixes"
	"github.com/andyballingall/cdbtidy/internal/tool"
)

// ErrPassInProgress is returned when RunTidyPass is called on an adapter that is already running one.
var ErrPassInProgress = errors.New("a tidy pass is already running")

// State is the lifecycle state of an Adapter.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Options configures the compilation database and the tidy tool invocation.
type Options struct {
	Template        compdb.Template
	Command         string
	Checks          []string
	HeaderFilter    string
	Target          string
	ExportFixes     string
	FixesLog        config.FixesLogPolicy
	FailOnToolError bool
	Timeout         time.Duration
}

// OptionsFromConfig maps the compile and tidy sections of cfg to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Template: compdb.Template{
			File:      cfg.Compile.File,
			Arguments: cfg.Compile.Arguments,
		},
		Command:         cfg.Tidy.Command,
		Checks:          cfg.Tidy.Checks,
		HeaderFilter:    cfg.Tidy.HeaderFilter,
		Target:          cfg.Tidy.Target,
		ExportFixes:     cfg.Tidy.ExportFixes,
		FixesLog:        cfg.Tidy.FixesLog,
		FailOnToolError: cfg.Tidy.FailOnToolError,
		Timeout:         cfg.Tidy.Timeout,
	}
}

// Args returns the tidy tool arguments, in the order the tool expects them.
func (o Options) Args() []string {
	return []string{
		"-checks=" + strings.Join(o.Checks, ","),
		"-header-filter=" + o.HeaderFilter,
		"-export-fixes=" + o.ExportFixes,
		"-fix",
		o.Target,
	}
}

// Report describes the outcome of one tidy pass.
type Report struct {
	WorkDir         string         `json:"workDir"`
	Command         string         `json:"command"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	ExitCode        int            `json:"exitCode"`
	FixesLogPresent bool           `json:"fixesLogPresent"`
	Fixes           *fixes.Summary `json:"fixes,omitempty"`
	Removed         []string       `json:"removed"`
}

// Duration is the wall time of the pass.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Adapter is the CompilationDatabaseAdapter. It owns the generated database and
// fixes log for the duration of a pass. An Adapter runs one pass at a time and
// does not guard against other processes using the same working directory.
type Adapter struct {
	fs     afero.Fs
	runner tool.Runner
	logger *slog.Logger
	opts   Options
	stdout io.Writer
	stderr io.Writer
	state  atomic.Int32
}

// NewAdapter creates an Adapter. A nil logger discards log output.
func NewAdapter(fsys afero.Fs, r tool.Runner, logger *slog.Logger, opts Options) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		fs:     fsys,
		runner: r,
		logger: logger.With("component", "tidy"),
		opts:   opts,
	}
}

// SetOutput sets where the tidy tool's own output goes. Both default to being discarded.
func (a *Adapter) SetOutput(stdout, stderr io.Writer) {
	a.stdout = stdout
	a.stderr = stderr
}

// State reports whether a pass is currently running.
func (a *Adapter) State() State {
	return State(a.state.Load())
}

// Invocation returns the tidy tool invocation for workDir.
func (a *Adapter) Invocation(workDir string) tool.Invocation {
	return tool.Invocation{
		Name:   a.opts.Command,
		Args:   a.opts.Args(),
		Dir:    workDir,
		Stdout: a.stdout,
		Stderr: a.stderr,
	}
}

// RunTidyPass writes compile_commands.json into workDir, runs the tidy tool
// with fixes applied in place, then deletes the database and the fixes log.
//
// Once the database is written both artefacts are removed on every exit path.
// Failures to remove them are returned as *CleanupError, joined with any error
// from the pass itself. A non-zero tool exit is only an error when
// FailOnToolError is set; it is always recorded in the Report.
func (a *Adapter) RunTidyPass(ctx context.Context, workDir string) (rep *Report, err error) {
	if !a.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrPassInProgress
	}
	defer a.state.Store(int32(StateIdle))

	if !filepath.IsAbs(workDir) {
		return nil, &WorkDirError{Path: workDir}
	}

	inv := a.Invocation(workDir)
	rep = &Report{WorkDir: workDir, Command: inv.String(), StartTime: time.Now()}
	defer func() { rep.EndTime = time.Now() }()

	data, err := compdb.Render(workDir, a.opts.Template)
	if err != nil {
		return rep, err
	}

	dbPath := filepath.Join(workDir, compdb.FileName)
	fixesPath := a.fixesPath(workDir)

	if wErr := afero.WriteFile(a.fs, dbPath, data, 0o644); wErr != nil {
		return rep, errors.Join(
			fmt.Errorf("failed to write %s: %w", dbPath, wErr),
			a.removeIfPresent(dbPath),
		)
	}
	a.logger.Debug("wrote compilation database", "path", dbPath)

	defer func() {
		err = errors.Join(err, a.cleanup(rep, dbPath, fixesPath))
	}()

	runErr := a.run(ctx, inv)
	rep.ExitCode = tool.ExitCode(runErr)

	var exitErr *tool.ExitError
	switch {
	case runErr == nil:
		a.logger.Debug("tidy tool finished", "command", inv.String())
	case errors.As(runErr, &exitErr) && !a.opts.FailOnToolError:
		a.logger.Warn("tidy tool exited with a failure status", "command", inv.String(), "exitCode", exitErr.Code)
	default:
		return rep, runErr
	}
	return rep, nil
}

func (a *Adapter) run(ctx context.Context, inv tool.Invocation) error {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	a.logger.Info("Running "+inv.Name, "command", inv.String(), "dir", inv.Dir)
	return a.runner.Run(ctx, inv)
}

func (a *Adapter) fixesPath(workDir string) string {
	if filepath.IsAbs(a.opts.ExportFixes) {
		return a.opts.ExportFixes
	}
	return filepath.Join(workDir, a.opts.ExportFixes)
}

// cleanup deletes both artefacts. The fixes log is summarised first so the
// report still says what was fixed after the file is gone.
func (a *Adapter) cleanup(rep *Report, dbPath, fixesPath string) error {
	var errs []error

	if err := a.fs.Remove(dbPath); err != nil {
		errs = append(errs, &CleanupError{Path: dbPath, Wrapped: err})
	} else {
		rep.Removed = append(rep.Removed, dbPath)
	}

	rep.Fixes = a.summariseFixes(fixesPath)

	switch err := a.fs.Remove(fixesPath); {
	case err == nil:
		rep.FixesLogPresent = true
		rep.Removed = append(rep.Removed, fixesPath)
	case errors.Is(err, fs.ErrNotExist) && a.opts.FixesLog == config.FixesLogTolerate:
		a.logger.Debug("no fixes log was produced", "path", fixesPath)
	default:
		errs = append(errs, &CleanupError{Path: fixesPath, Wrapped: err})
	}

	return errors.Join(errs...)
}

func (a *Adapter) summariseFixes(path string) *fixes.Summary {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	s, err := fixes.Parse(f)
	if err != nil {
		a.logger.Warn("could not read fixes log", "path", path, "error", err)
		return nil
	}
	a.logger.Debug("fixes log summarised", "diagnostics", s.Diagnostics, "replacements", s.Replacements)
	return s
}

func (a *Adapter) removeIfPresent(path string) error {
	if ok, _ := afero.Exists(a.fs, path); !ok {
		return nil
	}
	if err := a.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &CleanupError{Path: path, Wrapped: err}
	}
	return nil
}
