package tool

import "fmt"

// NotFoundError is returned when a program cannot be resolved on PATH.
type NotFoundError struct {
	Name    string
	Wrapped error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found on PATH: %v", e.Name, e.Wrapped)
}

func (e *NotFoundError) Unwrap() error {
	return e.Wrapped
}

// ExitError is returned when a program ran but exited with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Wrapped error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Wrapped
}
