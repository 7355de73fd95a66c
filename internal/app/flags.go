package app

import (
	"fmt"

	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/report"
)

// formatValue implements pflag.Value to provide a custom type name in help text
// and validation for output formats.
type formatValue report.Format

func (f *formatValue) String() string {
	return string(*f)
}

func (f *formatValue) Set(v string) error {
	if v != string(report.FormatJSON) && v != string(report.FormatText) {
		return fmt.Errorf("must be 'text' or 'json'")
	}
	*f = formatValue(v)
	return nil
}

func (f *formatValue) Type() string {
	return "<format>"
}

// pathValue implements pflag.Value to provide a custom type name in help text.
type pathValue string

func (p *pathValue) String() string {
	return string(*p)
}

func (p *pathValue) Set(v string) error {
	*p = pathValue(v)
	return nil
}

func (p *pathValue) Type() string {
	return "<path>"
}

// fixesLogValue implements pflag.Value for the fixes-log policy. The zero
// value leaves the configured policy in place.
type fixesLogValue config.FixesLogPolicy

func (f *fixesLogValue) String() string {
	return string(*f)
}

func (f *fixesLogValue) Set(v string) error {
	p, err := config.ParseFixesLogPolicy(v)
	if err != nil {
		return fmt.Errorf("must be '%s' or '%s'", config.FixesLogRequire, config.FixesLogTolerate)
	}
	*f = fixesLogValue(p)
	return nil
}

func (f *fixesLogValue) Type() string {
	return "<policy>"
}
