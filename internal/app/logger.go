package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LogEnvVar names the file structured logs are appended to. File logging is off when it is unset.
const LogEnvVar = "CDBTIDY_LOG_FILE"

// setupLogger returns a logger writing short human-readable lines to stderr
// and, when logPath is set, JSON records at debug level to that file. If the
// file cannot be opened the console logger is still returned with the error.
func setupLogger(stderr io.Writer, logLevel *slog.LevelVar, logPath string) (*slog.Logger, io.Closer, error) {
	console := newConsoleHandler(stderr, logLevel)
	if logPath == "" {
		return slog.New(console), nil, nil
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(console), nil, err
	}

	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(fanoutHandler{file, console}), f, nil
}

// fanoutHandler passes each record to every handler that accepts its level.
// A failing handler does not stop the others.
type fanoutHandler []slog.Handler

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, inner := range h {
		if inner.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

//nolint:gocritic // slog.Record is passed by value in the interface
func (h fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, inner := range h {
		if !inner.Enabled(ctx, record.Level) {
			continue
		}
		if err := inner.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	return h.each(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h fanoutHandler) each(fn func(slog.Handler) slog.Handler) fanoutHandler {
	out := make(fanoutHandler, len(h))
	for i, inner := range h {
		out[i] = fn(inner)
	}
	return out
}

// consoleHandler writes one line per record. Errors and paths are always
// shown; other attributes only at debug level, prefixed by their group.
type consoleHandler struct {
	mu    *sync.Mutex // shared by derived handlers; format workers log concurrently
	w     io.Writer
	level *slog.LevelVar
	group string
	attrs []slog.Attr
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (c *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= c.level.Level()
}

//nolint:gocritic // slog.Record is passed by value in the interface
func (c *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var line bytes.Buffer
	switch {
	case record.Level >= slog.LevelError:
		line.WriteString("Error: ")
	case record.Level >= slog.LevelWarn:
		line.WriteString("Warning: ")
	}
	line.WriteString(record.Message)

	debug := c.level.Level() <= slog.LevelDebug
	for _, a := range c.attrs {
		writeAttr(&line, a, debug)
	}
	record.Attrs(func(a slog.Attr) bool {
		if c.group != "" {
			a.Key = c.group + "." + a.Key
		}
		writeAttr(&line, a, debug)
		return true
	})
	line.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(line.Bytes())
	return err
}

func writeAttr(line *bytes.Buffer, a slog.Attr, debug bool) {
	switch a.Key {
	case "error", "err":
		fmt.Fprintf(line, ": %v", a.Value)
	case "path":
		fmt.Fprintf(line, " %v", a.Value)
	default:
		if debug {
			fmt.Fprintf(line, " %s=%v", a.Key, a.Value)
		}
	}
}

func (c *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	next.attrs = append(next.attrs, c.attrs...)
	for _, a := range attrs {
		if c.group != "" {
			a.Key = c.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (c *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	next := *c
	if c.group != "" {
		name = c.group + "." + name
	}
	next.group = name
	return &next
}
