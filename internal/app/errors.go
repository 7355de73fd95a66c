package app

import "fmt"

type invalidJobsError struct {
	Jobs int
}

func (e *invalidJobsError) Error() string {
	return fmt.Sprintf("--jobs must not be negative, got %d", e.Jobs)
}
