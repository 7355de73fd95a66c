package app

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/report"
)

func NewTidyCmd(mgr Manager) *cobra.Command {
	var verbose bool
	var watch bool
	var timeout time.Duration
	fixesLogVal := fixesLogValue("")

	cmd := &cobra.Command{
		Use:   "tidy",
		Short: "Run the tidy pass (the default when no subcommand is given)",
		Args:  cobra.NoArgs,
		Example: `
  cdbtidy tidy
  cdbtidy tidy --fixes-log tolerate   # run-clang-tidy.py found nothing to fix
  cdbtidy tidy --timeout 10m -o json
  cdbtidy tidy --watch`,
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the tool command line, fixed files and removed artefacts")
	outputVal := formatValue(report.FormatText)
	cmd.Flags().VarP(&outputVal, "output", "o", "Output format (text, json)")
	cmd.Flags().Var(&fixesLogVal, "fixes-log",
		"What a missing fixes log means ("+string(config.FixesLogRequire)+", "+string(config.FixesLogTolerate)+
			"; default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop the tidy tool after this long (0 uses the configured value)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch for source changes and rerun the pass")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		to := TidyOptions{
			FixesLog: config.FixesLogPolicy(fixesLogVal),
			Timeout:  timeout,
		}
		out := OutputOptions{
			Format:    report.Format(outputVal),
			Verbose:   verbose,
			UseColour: useColour(cmd),
		}

		if watch {
			return mgr.WatchTidy(cmd.Context(), to, out, nil)
		}
		return mgr.Tidy(cmd.Context(), to, out)
	}

	return cmd
}
