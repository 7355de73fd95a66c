// Package format runs an external code formatter over every matching file in a tree.
package format

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/tool"
)

type Options struct {
	Command     string
	Args        []string
	Extensions  []string
	NoExtension bool
	Exclude     []string
	SkipDirs    []string
	Jobs        int
	DryRun      bool
	KeepGoing   bool
}

// OptionsFromConfig maps the format section of cfg to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Command:     cfg.Format.Command,
		Args:        cfg.Format.Args,
		Extensions:  cfg.Format.Extensions,
		NoExtension: cfg.Format.NoExtension,
		Exclude:     cfg.Format.Exclude,
		SkipDirs:    cfg.Format.SkipDirs,
		Jobs:        cfg.Format.Jobs,
	}
}

// Report describes the outcome of one format pass.
type Report struct {
	Root      string            `json:"root"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	DryRun    bool              `json:"dryRun"`
	Formatted []string          `json:"formatted"`
	Skipped   int               `json:"skipped"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Formatter walks a tree and formats the files it selects, one formatter process per file.
type Formatter struct {
	fs     afero.Fs
	runner tool.Runner
	logger *slog.Logger
	opts   Options
	stdout io.Writer
	stderr io.Writer
}

// NewFormatter creates a Formatter. A nil logger discards log output.
func NewFormatter(fsys afero.Fs, r tool.Runner, logger *slog.Logger, opts Options) *Formatter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Formatter{
		fs:     fsys,
		runner: r,
		logger: logger.With("component", "format"),
		opts:   opts,
	}
}

// SetOutput sets where the formatter's own output goes. Both default to being discarded.
func (f *Formatter) SetOutput(stdout, stderr io.Writer) {
	f.stdout = stdout
	f.stderr = stderr
}

// Select walks root and returns the files to format in lexical order, along
// with the number of regular files it passed over.
func (f *Formatter) Select(root string) ([]string, int, error) {
	var selected []string
	skipped := 0

	err := afero.Walk(f.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, rErr := filepath.Rel(root, path)
		if rErr != nil {
			return rErr
		}
		if info.IsDir() {
			if rel != "." && f.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !f.wants(info.Name()) {
			skipped++
			return nil
		}
		selected = append(selected, path)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return selected, skipped, nil
}

// skipDir matches by substring, so ".git" also excludes ".github" and "foo.git".
func (f *Formatter) skipDir(rel string) bool {
	for _, s := range f.opts.SkipDirs {
		if s != "" && strings.Contains(rel, s) {
			return true
		}
	}
	return false
}

func (f *Formatter) wants(name string) bool {
	if slices.Contains(f.opts.Exclude, name) {
		return false
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return f.opts.NoExtension
	}
	return slices.Contains(f.opts.Extensions, ext)
}

// Run formats every selected file under root. Without KeepGoing the first
// failure stops the pass; with it every file is attempted and failures are
// collected in the report.
func (f *Formatter) Run(ctx context.Context, root string) (*Report, error) {
	rep := &Report{Root: root, StartTime: time.Now(), DryRun: f.opts.DryRun, Failed: map[string]string{}}
	defer func() { rep.EndTime = time.Now() }()

	files, skipped, err := f.Select(root)
	if err != nil {
		return rep, err
	}
	rep.Skipped = skipped

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Jobs)

	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		f.logger.Info("Formatting " + path)
		if f.opts.DryRun {
			rep.Formatted = append(rep.Formatted, path)
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			inv := tool.Invocation{
				Name:   f.opts.Command,
				Args:   append(slices.Clone(f.opts.Args), path),
				Dir:    root,
				Stdout: f.stdout,
				Stderr: f.stderr,
			}
			runErr := f.runner.Run(gctx, inv)

			mu.Lock()
			defer mu.Unlock()
			if runErr == nil {
				rep.Formatted = append(rep.Formatted, path)
				return nil
			}
			if errors.Is(runErr, context.Canceled) && gctx.Err() != nil {
				return nil
			}
			rep.Failed[path] = runErr.Error()
			f.logger.Warn("formatting failed", "path", path, "error", runErr)
			if f.opts.KeepGoing {
				return nil
			}
			return &FileError{Path: path, Wrapped: runErr}
		})
	}

	err = g.Wait()
	slices.Sort(rep.Formatted)
	if err != nil {
		return rep, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rep, ctxErr
	}
	if len(rep.Failed) > 0 {
		return rep, &FailuresError{Count: len(rep.Failed)}
	}
	return rep, nil
}

type FileError struct {
	Path    string
	Wrapped error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to format %s: %v", e.Path, e.Wrapped)
}

func (e *FileError) Unwrap() error {
	return e.Wrapped
}

type FailuresError struct {
	Count int
}

func (e *FailuresError) Error() string {
	return fmt.Sprintf("%d file(s) could not be formatted", e.Count)
}

// Matches reports whether path, somewhere under root, would be selected by Select.
func (f *Formatter) Matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	if dir := filepath.Dir(rel); dir != "." && f.skipDir(dir) {
		return false
	}
	return f.wants(filepath.Base(path))
}
