// Package report renders tidy and format pass reports.
package report

import (
	"fmt"
	"io"

	"github.com/andyballingall/cdbtidy/internal/format"
	"github.com/andyballingall/cdbtidy/internal/tidy"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatText, FormatJSON}

// Reporter writes pass reports.
type Reporter interface {
	WriteTidy(w io.Writer, r *tidy.Report) error
	WriteFormat(w io.Writer, r *format.Report) error
}

// UnknownFormatError is returned by New for an unsupported format.
type UnknownFormatError struct {
	Format Format
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (expected text or json)", e.Format)
}

// New returns the Reporter for f. Colour and verbosity only affect text output.
func New(f Format, useColour, verbose bool) (Reporter, error) {
	switch f {
	case FormatText, "":
		return &TextReporter{UseColour: useColour, Verbose: verbose}, nil
	case FormatJSON:
		return &JSONReporter{}, nil
	default:
		return nil, &UnknownFormatError{Format: f}
	}
}
