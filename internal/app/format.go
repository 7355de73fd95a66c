package app

import (
	"github.com/spf13/cobra"

	"github.com/andyballingall/cdbtidy/internal/report"
)

func NewFormatCmd(mgr Manager) *cobra.Command {
	var verbose bool
	var watch bool
	var fo FormatOptions

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Run clang-format over every matching source file",
		Long: `
Walks the working directory and runs the configured formatter on each file
with no extension or one of the configured extensions. Directories whose path
contains .git and the configured excluded file names are skipped.`,
		Args: cobra.NoArgs,
		Example: `
  cdbtidy format --dry-run
  cdbtidy format --jobs 8 --keep-going
  cdbtidy format --watch`,
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every formatted file")
	outputVal := formatValue(report.FormatText)
	cmd.Flags().VarP(&outputVal, "output", "o", "Output format (text, json)")
	cmd.Flags().IntVarP(&fo.Jobs, "jobs", "j", 0, "Number of formatter processes to run at once (0 uses the configured value)")
	cmd.Flags().BoolVarP(&fo.DryRun, "dry-run", "n", false, "List the files that would be formatted without formatting them")
	cmd.Flags().BoolVarP(&fo.KeepGoing, "keep-going", "k", false,
		"Format every file even if one fails (default is to stop on first failure)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch for source changes and rerun the pass")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if fo.Jobs < 0 {
			return &invalidJobsError{Jobs: fo.Jobs}
		}
		out := OutputOptions{
			Format:    report.Format(outputVal),
			Verbose:   verbose,
			UseColour: useColour(cmd),
		}

		if watch {
			return mgr.WatchFormat(cmd.Context(), fo, out, nil)
		}
		return mgr.Format(cmd.Context(), fo, out)
	}

	return cmd
}
