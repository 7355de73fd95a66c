package compdb

import "fmt"

type InvalidTemplateError struct {
	Reason string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid compilation database template: %s", e.Reason)
}

type InvalidDatabaseError struct {
	Wrapped error
}

func (e *InvalidDatabaseError) Error() string {
	return fmt.Sprintf("%s is not a valid compilation database: %v", FileName, e.Wrapped)
}

func (e *InvalidDatabaseError) Unwrap() error {
	return e.Wrapped
}
