package tidy

import "fmt"

// CleanupError reports an artefact that could not be removed after a pass.
type CleanupError struct {
	Path    string
	Wrapped error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Wrapped)
}

func (e *CleanupError) Unwrap() error {
	return e.Wrapped
}

type WorkDirError struct {
	Path string
}

func (e *WorkDirError) Error() string {
	return fmt.Sprintf("working directory %q must be an absolute path", e.Path)
}
