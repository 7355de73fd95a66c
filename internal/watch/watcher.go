// Package watch reruns a pass whenever a relevant source file changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce = 100 * time.Millisecond
	defaultQuiet    = 250 * time.Millisecond
)

// eventWatcher is the subset of *fsnotify.Watcher the Watcher relies on.
type eventWatcher interface {
	Add(name string) error
	Close() error
	Events() chan fsnotify.Event
	Errors() chan error
}

type eventWatcherWrapper struct {
	*fsnotify.Watcher
}

func (w *eventWatcherWrapper) Events() chan fsnotify.Event { return w.Watcher.Events }
func (w *eventWatcherWrapper) Errors() chan error          { return w.Watcher.Errors }

func newFSNotifyWatcher() (eventWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &eventWatcherWrapper{fw}, nil
}

// Watcher monitors a source tree for file changes.
type Watcher struct {
	root   string
	filter func(path string) bool
	logger *slog.Logger
	Ready  chan struct{}

	debounce time.Duration
	quiet    time.Duration

	newWatcher func() (eventWatcher, error)
}

// NewWatcher creates a Watcher for root. filter selects the files whose
// changes are relevant. A nil logger discards log output.
func NewWatcher(root string, filter func(path string) bool, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		root:       root,
		filter:     filter,
		logger:     logger.With("component", "watcher"),
		Ready:      make(chan struct{}),
		debounce:   defaultDebounce,
		quiet:      defaultQuiet,
		newWatcher: newFSNotifyWatcher,
	}
}

// Watch calls onChange with the last relevant path of each burst of changes.
// onChange runs on the watching goroutine; changes made while it runs, such as
// fixes the pass applies in place, are discarded. Watch blocks until ctx is done.
func (w *Watcher) Watch(ctx context.Context, onChange func(ctx context.Context, path string)) error {
	watcher, err := w.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return err
	}

	w.logger.Info("Watching for changes", "root", w.root)
	if w.Ready != nil {
		close(w.Ready)
	}

	var fire <-chan time.Time
	var pending string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if path := w.handleEvent(watcher, event); path != "" {
				pending = path
				fire = time.After(w.debounce)
			}
		case <-fire:
			fire = nil
			w.logger.Debug("change detected", "path", pending)
			onChange(ctx, pending)
			w.drain(ctx, watcher)
		}
	}
}

// drain discards events until the tree has been quiet for w.quiet.
func (w *Watcher) drain(ctx context.Context, watcher eventWatcher) {
	timer := time.NewTimer(w.quiet)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			_ = w.handleEvent(watcher, event)
			timer.Reset(w.quiet)
		}
	}
}

// handleEvent adds newly created directories to the watcher and returns the
// path of a relevant file change, or "".
func (w *Watcher) handleEvent(watcher eventWatcher, event fsnotify.Event) string {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return ""
	}

	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(watcher, event.Name); err != nil {
				w.logger.Error("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return ""
		}
	}

	if w.filter != nil && !w.filter(event.Name) {
		return ""
	}
	return event.Name
}

// addRecursive adds the given path and all its subdirectories to the watcher.
func (w *Watcher) addRecursive(watcher eventWatcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
