package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/andyballingall/cdbtidy/internal/format"
	"github.com/andyballingall/cdbtidy/internal/tidy"
)

// TextReporter implements Reporter for plain text output.
type TextReporter struct {
	Verbose   bool
	UseColour bool
}

const (
	colReset     = "\033[0m"
	colRed       = "\033[31m"
	colGreen     = "\033[32m"
	colYellow    = "\033[33m"
	colGrey      = "\033[90m"
	colWhite     = "\033[37m"
	colBoldRed   = "\033[1;31m"
	colBoldGreen = "\033[1;32m"
	colBoldWhite = "\033[1;37m"
)

// cs returns a string which will render with the given colour
// if colourisation is enabled.
func (tr *TextReporter) cs(c, s string) string {
	if !tr.UseColour {
		return s
	}
	return c + s + colReset
}

func (tr *TextReporter) field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", tr.cs(colGrey, fmt.Sprintf("%-10s", label+":")), tr.cs(colWhite, value))
}

func (tr *TextReporter) WriteTidy(w io.Writer, r *tidy.Report) error {
	divider := strings.Repeat("-", 40)

	fmt.Fprintf(w, "%s\n", divider)
	fmt.Fprint(w, tr.cs(colBoldWhite, "TIDY REPORT\n\n"))
	tr.field(w, "Directory", r.WorkDir)
	tr.field(w, "Started", r.StartTime.Format("15:04:05"))
	tr.field(w, "Duration", r.Duration().String())
	if tr.Verbose {
		tr.field(w, "Command", r.Command)
	}
	fmt.Fprintf(w, "%s\n", divider)

	exit := fmt.Sprintf("exit status %d", r.ExitCode)
	if r.ExitCode == 0 {
		fmt.Fprintf(w, "%s %s\n", tr.cs(colGreen, "[OK]"), exit)
	} else {
		fmt.Fprintf(w, "%s %s\n", tr.cs(colYellow, "[WARN]"), tr.cs(colYellow, exit))
	}

	if !r.FixesLogPresent {
		fmt.Fprintf(w, "%s no fixes log was written\n", tr.cs(colYellow, "[WARN]"))
	}

	if s := r.Fixes; s != nil {
		for _, check := range slices.Sorted(maps.Keys(s.ByCheck)) {
			fmt.Fprintf(w, "  %s %s (%d)\n", tr.cs(colGrey, "•"), check, s.ByCheck[check])
		}
		if tr.Verbose {
			for _, f := range s.Files {
				fmt.Fprintf(w, "  %s %s\n", tr.cs(colGreen, "✓"), tr.cs(colGrey, f))
			}
		}
	}

	if tr.Verbose {
		for _, p := range r.Removed {
			fmt.Fprintf(w, "  %s %s\n", tr.cs(colGrey, "removed"), tr.cs(colGrey, p))
		}
	}

	fmt.Fprintf(w, "%s\n", divider)
	diagnostics, replacements := 0, 0
	if r.Fixes != nil {
		diagnostics, replacements = r.Fixes.Diagnostics, r.Fixes.Replacements
	}
	summaryStats := fmt.Sprintf("%d diagnostics, %d replacements", diagnostics, replacements)
	fmt.Fprintf(w, "%s%s\n", tr.cs(colBoldWhite, "Tidy summary: "), tr.cs(colBoldGreen, summaryStats))
	fmt.Fprintf(w, "%s\n", divider)

	return nil
}

func (tr *TextReporter) WriteFormat(w io.Writer, r *format.Report) error {
	divider := strings.Repeat("-", 40)

	title := "FORMAT REPORT\n\n"
	if r.DryRun {
		title = "FORMAT REPORT (dry run)\n\n"
	}

	fmt.Fprintf(w, "%s\n", divider)
	fmt.Fprint(w, tr.cs(colBoldWhite, title))
	tr.field(w, "Directory", r.Root)
	tr.field(w, "Started", r.StartTime.Format("15:04:05"))
	tr.field(w, "Duration", r.Duration().String())
	fmt.Fprintf(w, "%s\n", divider)

	if tr.Verbose || r.DryRun {
		for _, p := range r.Formatted {
			fmt.Fprintf(w, "  %s %s\n", tr.cs(colGreen, "✓"), tr.cs(colGrey, p))
		}
	}

	for _, p := range slices.Sorted(maps.Keys(r.Failed)) {
		fmt.Fprintf(w, "  %s %s:\n", tr.cs(colRed, "✗"), tr.cs(colGrey, p))
		fmt.Fprintf(w, "    %s\n", r.Failed[p])
	}

	fmt.Fprintf(w, "%s\n", divider)
	summaryStats := fmt.Sprintf("%d formatted, %d skipped, %d failed", len(r.Formatted), r.Skipped, len(r.Failed))
	statsColor := colBoldGreen
	if len(r.Failed) > 0 {
		statsColor = colBoldRed
	}
	fmt.Fprintf(w, "%s%s\n", tr.cs(colBoldWhite, "Format summary: "), tr.cs(statsColor, summaryStats))
	fmt.Fprintf(w, "%s\n", divider)

	return nil
}
