package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/andyballingall/cdbtidy/internal/fixes"
	"github.com/andyballingall/cdbtidy/internal/format"
	"github.com/andyballingall/cdbtidy/internal/tidy"
)

// JSONReporter implements Reporter for JSON output.
type JSONReporter struct{}

type jsonTidy struct {
	Pass            string         `json:"pass"`
	WorkDir         string         `json:"workDir"`
	Command         string         `json:"command"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	Duration        string         `json:"duration"`
	ExitCode        int            `json:"exitCode"`
	FixesLogPresent bool           `json:"fixesLogPresent"`
	Fixes           *fixes.Summary `json:"fixes,omitempty"`
	Removed         []string       `json:"removed"`
}

type jsonFormat struct {
	Pass      string `json:"pass"`
	Root      string `json:"root"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  string `json:"duration"`
	DryRun    bool   `json:"dryRun"`
	Stats     struct {
		Formatted int `json:"formatted"`
		Skipped   int `json:"skipped"`
		Failed    int `json:"failed"`
	} `json:"stats"`
	Formatted []string          `json:"formatted"`
	Failed    map[string]string `json:"failed"`
}

func (jr *JSONReporter) WriteTidy(w io.Writer, r *tidy.Report) error {
	removed := r.Removed
	if removed == nil {
		removed = []string{}
	}
	return encode(w, jsonTidy{
		Pass:            "tidy",
		WorkDir:         r.WorkDir,
		Command:         r.Command,
		StartTime:       r.StartTime.Format(time.RFC3339),
		EndTime:         r.EndTime.Format(time.RFC3339),
		Duration:        r.Duration().String(),
		ExitCode:        r.ExitCode,
		FixesLogPresent: r.FixesLogPresent,
		Fixes:           r.Fixes,
		Removed:         removed,
	})
}

func (jr *JSONReporter) WriteFormat(w io.Writer, r *format.Report) error {
	out := jsonFormat{
		Pass:      "format",
		Root:      r.Root,
		StartTime: r.StartTime.Format(time.RFC3339),
		EndTime:   r.EndTime.Format(time.RFC3339),
		Duration:  r.Duration().String(),
		DryRun:    r.DryRun,
		Formatted: r.Formatted,
		Failed:    r.Failed,
	}
	if out.Formatted == nil {
		out.Formatted = []string{}
	}
	if out.Failed == nil {
		out.Failed = map[string]string{}
	}
	out.Stats.Formatted = len(r.Formatted)
	out.Stats.Skipped = r.Skipped
	out.Stats.Failed = len(r.Failed)
	return encode(w, out)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
