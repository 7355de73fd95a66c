package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/andyballingall/cdbtidy/internal/compdb"
	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/format"
	"github.com/andyballingall/cdbtidy/internal/report"
	"github.com/andyballingall/cdbtidy/internal/tidy"
	"github.com/andyballingall/cdbtidy/internal/tool"
	"github.com/andyballingall/cdbtidy/internal/watch"
)

// OutputOptions controls how pass reports are written.
type OutputOptions struct {
	Format    report.Format
	Verbose   bool
	UseColour bool
}

// TidyOptions overrides the configured tidy settings for one command. Zero
// values keep the configured setting.
type TidyOptions struct {
	FixesLog config.FixesLogPolicy
	Timeout  time.Duration
}

// FormatOptions overrides the configured format settings for one command.
// A zero Jobs keeps the configured value.
type FormatOptions struct {
	Jobs      int
	DryRun    bool
	KeepGoing bool
}

// Manager defines the operations behind each command.
type Manager interface {
	WorkDir() string
	Tidy(ctx context.Context, to TidyOptions, out OutputOptions) error
	WatchTidy(ctx context.Context, to TidyOptions, out OutputOptions, readyChan chan<- struct{}) error
	Format(ctx context.Context, fo FormatOptions, out OutputOptions) error
	WatchFormat(ctx context.Context, fo FormatOptions, out OutputOptions, readyChan chan<- struct{}) error
	RenderDatabase() ([]byte, error)
	Clean() ([]string, error)
}

// Ensure the interface is satisfied.
var _ Manager = (*LazyManager)(nil)

// LazyManager acts as a placeholder for a real Manager implementation, allowing
// for deferred initialization of dependencies.
type LazyManager struct {
	inner Manager
}

func (l *LazyManager) SetInner(m Manager) {
	l.inner = m
}

// HasInner returns true if the inner manager has been set.
// This is used by PersistentPreRunE to skip initialization if already configured (e.g., in tests).
func (l *LazyManager) HasInner() bool {
	return l.inner != nil
}

func (l *LazyManager) check() Manager {
	if l.inner == nil {
		panic("LazyManager accessed before initialization; check command wiring.")
	}
	return l.inner
}

func (l *LazyManager) WorkDir() string {
	return l.check().WorkDir()
}

func (l *LazyManager) Tidy(ctx context.Context, to TidyOptions, out OutputOptions) error {
	return l.check().Tidy(ctx, to, out)
}

func (l *LazyManager) WatchTidy(ctx context.Context, to TidyOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	return l.check().WatchTidy(ctx, to, out, readyChan)
}

func (l *LazyManager) Format(ctx context.Context, fo FormatOptions, out OutputOptions) error {
	return l.check().Format(ctx, fo, out)
}

func (l *LazyManager) WatchFormat(ctx context.Context, fo FormatOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	return l.check().WatchFormat(ctx, fo, out, readyChan)
}

func (l *LazyManager) RenderDatabase() ([]byte, error) {
	return l.check().RenderDatabase()
}

func (l *LazyManager) Clean() ([]string, error) {
	return l.check().Clean()
}

// Ensure the interface is satisfied.
var _ Manager = (*CLIManager)(nil)

// CLIManager is the concrete implementation of the Manager interface.
type CLIManager struct {
	logger  *slog.Logger
	fs      afero.Fs
	runner  tool.Runner
	cfg     *config.Config
	workDir string
	stdout  io.Writer
	stderr  io.Writer
}

func NewCLIManager(
	l *slog.Logger,
	fsys afero.Fs,
	r tool.Runner,
	cfg *config.Config,
	workDir string,
	stdout, stderr io.Writer,
) *CLIManager {
	return &CLIManager{
		logger:  l,
		fs:      fsys,
		runner:  r,
		cfg:     cfg,
		workDir: workDir,
		stdout:  stdout,
		stderr:  stderr,
	}
}

func (m *CLIManager) WorkDir() string {
	return m.workDir
}

func (m *CLIManager) newAdapter(to TidyOptions, out OutputOptions) *tidy.Adapter {
	opts := tidy.OptionsFromConfig(m.cfg)
	if to.FixesLog != "" {
		opts.FixesLog = to.FixesLog
	}
	if to.Timeout > 0 {
		opts.Timeout = to.Timeout
	}

	a := tidy.NewAdapter(m.fs, m.runner, m.logger, opts)
	a.SetOutput(m.toolStdout(out), m.stderr)
	return a
}

func (m *CLIManager) newFormatter(fo FormatOptions, out OutputOptions) *format.Formatter {
	opts := format.OptionsFromConfig(m.cfg)
	if fo.Jobs > 0 {
		opts.Jobs = fo.Jobs
	}
	opts.DryRun = fo.DryRun
	opts.KeepGoing = fo.KeepGoing

	f := format.NewFormatter(m.fs, m.runner, m.logger, opts)
	f.SetOutput(m.toolStdout(out), m.stderr)
	return f
}

// toolStdout keeps the external tools' output away from a JSON report on stdout.
func (m *CLIManager) toolStdout(out OutputOptions) io.Writer {
	if out.Format == report.FormatJSON {
		return m.stderr
	}
	return m.stdout
}

func (m *CLIManager) Tidy(ctx context.Context, to TidyOptions, out OutputOptions) error {
	m.logger.Debug("running tidy pass", "dir", m.workDir, "fixesLog", to.FixesLog, "timeout", to.Timeout,
		"format", out.Format)

	reporter, err := report.New(out.Format, out.UseColour, out.Verbose)
	if err != nil {
		return err
	}

	return m.tidyOnce(ctx, m.newAdapter(to, out), reporter)
}

func (m *CLIManager) tidyOnce(ctx context.Context, a *tidy.Adapter, reporter report.Reporter) error {
	rep, err := a.RunTidyPass(ctx, m.workDir)
	if err != nil {
		return err
	}
	return reporter.WriteTidy(m.stdout, rep)
}

// WatchTidy reruns the tidy pass whenever a source file changes.
// If you want to know when the watcher is ready to start listening to changes,
// pass a non-nil readyChan to be notified.
func (m *CLIManager) WatchTidy(ctx context.Context, to TidyOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	m.logger.Debug("watching tidy", "dir", m.workDir, "fixesLog", to.FixesLog, "timeout", to.Timeout,
		"format", out.Format)

	reporter, err := report.New(out.Format, out.UseColour, out.Verbose)
	if err != nil {
		return err
	}

	a := m.newAdapter(to, out)
	return m.watch(ctx, readyChan, func(ctx context.Context, path string) {
		m.logger.Info("Source changed:", "path", path)
		if err := m.tidyOnce(ctx, a, reporter); err != nil {
			m.logger.Error("Tidy pass failed", "error", err)
		}
	})
}

func (m *CLIManager) Format(ctx context.Context, fo FormatOptions, out OutputOptions) error {
	m.logger.Debug("running format pass", "dir", m.workDir, "jobs", fo.Jobs, "dryRun", fo.DryRun,
		"keepGoing", fo.KeepGoing, "format", out.Format)

	reporter, err := report.New(out.Format, out.UseColour, out.Verbose)
	if err != nil {
		return err
	}

	return m.formatOnce(ctx, m.newFormatter(fo, out), reporter)
}

func (m *CLIManager) formatOnce(ctx context.Context, f *format.Formatter, reporter report.Reporter) error {
	rep, err := f.Run(ctx, m.workDir)
	var failures *format.FailuresError
	if err != nil && !errors.As(err, &failures) {
		return err
	}
	if rErr := reporter.WriteFormat(m.stdout, rep); rErr != nil {
		return errors.Join(err, rErr)
	}
	return err
}

// WatchFormat reruns the format pass whenever a source file changes.
func (m *CLIManager) WatchFormat(ctx context.Context, fo FormatOptions, out OutputOptions,
	readyChan chan<- struct{},
) error {
	m.logger.Debug("watching format", "dir", m.workDir, "jobs", fo.Jobs, "dryRun", fo.DryRun,
		"keepGoing", fo.KeepGoing, "format", out.Format)

	reporter, err := report.New(out.Format, out.UseColour, out.Verbose)
	if err != nil {
		return err
	}

	f := m.newFormatter(fo, out)
	return m.watch(ctx, readyChan, func(ctx context.Context, path string) {
		m.logger.Info("Source changed:", "path", path)
		if err := m.formatOnce(ctx, f, reporter); err != nil {
			m.logger.Error("Format pass failed", "error", err)
		}
	})
}

func (m *CLIManager) watch(ctx context.Context, readyChan chan<- struct{},
	onChange func(ctx context.Context, path string),
) error {
	selector := format.NewFormatter(m.fs, m.runner, nil, format.OptionsFromConfig(m.cfg))
	watcher := watch.NewWatcher(m.workDir, func(path string) bool {
		return selector.Matches(m.workDir, path)
	}, m.logger)

	// Forward watcher Ready signal if caller wants notification
	if readyChan != nil {
		go func() {
			select {
			case <-watcher.Ready:
				readyChan <- struct{}{}
			case <-ctx.Done():
			}
		}()
	}

	err := watcher.Watch(ctx, onChange)
	if errors.Is(err, context.Canceled) {
		m.logger.Info("Interrupted by user")
		return nil
	}
	return err
}

// RenderDatabase returns the compilation database a tidy pass would write.
func (m *CLIManager) RenderDatabase() ([]byte, error) {
	opts := tidy.OptionsFromConfig(m.cfg)
	return compdb.Render(m.workDir, opts.Template)
}

// Clean removes artefacts left behind by an interrupted pass and returns the
// paths it removed. Missing artefacts are not an error.
func (m *CLIManager) Clean() ([]string, error) {
	fixesLog := m.cfg.Tidy.ExportFixes
	if !filepath.IsAbs(fixesLog) {
		fixesLog = filepath.Join(m.workDir, fixesLog)
	}

	var removed []string
	var errs []error
	for _, path := range []string{filepath.Join(m.workDir, compdb.FileName), fixesLog} {
		err := m.fs.Remove(path)
		switch {
		case err == nil:
			m.logger.Debug("removed artefact", "path", path)
			removed = append(removed, path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return removed, errors.Join(errs...)
}
