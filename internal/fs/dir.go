package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolver turns a user-supplied directory into a canonical path.
type PathResolver interface {
	// CanonicalPath returns the absolute form of path with symlinks resolved.
	CanonicalPath(path string) (string, error)
	// Getwd returns the current working directory of the process.
	Getwd() (string, error)
}

// OSPaths resolves paths against the real filesystem.
type OSPaths struct{}

func (OSPaths) CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (OSPaths) Getwd() (string, error) {
	return os.Getwd()
}

// NotADirectoryError is returned when a working directory path names something other than a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("%s is not a directory", e.Path)
}

// ResolveWorkDir returns the canonical absolute form of dir. An empty dir means
// the process working directory at the time of the call.
func ResolveWorkDir(r PathResolver, dir string) (string, error) {
	if dir == "" {
		wd, err := r.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not determine working directory: %w", err)
		}
		dir = wd
	}

	canonical, err := r.CanonicalPath(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &NotADirectoryError{Path: canonical}
	}
	return canonical, nil
}
