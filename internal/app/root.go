package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/fs"
	"github.com/andyballingall/cdbtidy/internal/report"
	"github.com/andyballingall/cdbtidy/internal/tool"
)

// Version is the current version of cdbtidy, set at build time.
var Version = "dev"

const (
	InitCmdName = "init"

	DirEnvVar    = "CDBTIDY_DIR"
	ConfigEnvVar = "CDBTIDY_CONFIG"
)

var LongDescription = `
cdbtidy runs clang-tidy over a source tree that has no build system of its own.
It writes a one-entry compile_commands.json describing the whole tree as a
single translation unit, runs run-clang-tidy.py with fixes applied in place,
then removes compile_commands.json and the exported fixes log again.

Run without a subcommand to perform the tidy pass in the working directory.
`

// NewRootCmd creates the root command and wires up dependencies.
func NewRootCmd(lazy *LazyManager, ll *slog.LevelVar, stdout, stderr io.Writer,
	envProvider fs.EnvProvider,
) *cobra.Command {
	var debug bool
	var noColour bool
	dirVal := pathValue("")
	configVal := pathValue("")

	rootCmd := &cobra.Command{
		Use:           "cdbtidy",
		Short:         "Run clang-tidy over a tree through a generated compilation database",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Long:          LongDescription,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				ll.Set(slog.LevelDebug)
			}

			// Skip initialization for help, completion and init commands
			if cmd.Name() == "help" || isCompletionCommand(cmd) || cmd.Name() == InitCmdName {
				return nil
			}
			// Skip if already initialised (e.g., in tests)
			if lazy.HasInner() {
				return nil
			}

			// 1. Resolve the working directory and configuration
			workDir, err := resolveWorkDir(string(dirVal), envProvider)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(string(configVal), workDir, envProvider)
			if err != nil {
				return err
			}

			// 2. Setup Logging
			logger, _, err := setupLogger(stderr, ll, envProvider.Get(LogEnvVar))
			if err != nil {
				logger.Warn("logging to file disabled", "error", err)
			}
			logger.Debug("configuration loaded", "dir", workDir, "config", cfg.Path)

			// 3. Hydrate the Lazy Wrapper
			realMgr := NewCLIManager(logger, afero.NewOsFs(), tool.NewExecRunner(), cfg, workDir, stdout, stderr)
			lazy.SetInner(realMgr)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return lazy.Tidy(cmd.Context(), TidyOptions{}, OutputOptions{
				Format:    report.FormatText,
				UseColour: !noColour,
			})
		},
	}

	// Global flags
	rootCmd.PersistentFlags().VarP(&dirVal, "dir", "C", "working directory (overrides "+DirEnvVar+")")
	rootCmd.PersistentFlags().Var(&configVal, "config",
		"path to config file (overrides "+ConfigEnvVar+"; default <dir>/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.PersistentFlags().BoolVarP(&noColour, "nocolour", "c", false, "Disable colour in output")
	// Support alternate spellings
	rootCmd.PersistentFlags().BoolVar(&noColour, "nocolor", false, "")
	rootCmd.PersistentFlags().BoolVar(&noColour, "noColor", false, "")
	rootCmd.PersistentFlags().BoolVar(&noColour, "noColour", false, "")
	_ = rootCmd.PersistentFlags().MarkHidden("nocolor")
	_ = rootCmd.PersistentFlags().MarkHidden("noColor")
	_ = rootCmd.PersistentFlags().MarkHidden("noColour")

	// Subcommands
	rootCmd.AddCommand(NewTidyCmd(lazy))
	rootCmd.AddCommand(NewFormatCmd(lazy))
	rootCmd.AddCommand(NewCompdbCmd(lazy))
	rootCmd.AddCommand(NewCleanCmd(lazy))
	rootCmd.AddCommand(NewInitCmd(envProvider))

	return rootCmd
}

// resolveWorkDir picks the working directory from the --dir flag, then
// DirEnvVar, then the process working directory.
func resolveWorkDir(dirFlag string, envProvider fs.EnvProvider) (string, error) {
	dir := dirFlag
	if dir == "" {
		dir = envProvider.Get(DirEnvVar)
	}
	return fs.ResolveWorkDir(fs.OSPaths{}, dir)
}

// loadConfig loads an explicit config file from the --config flag or
// ConfigEnvVar, and otherwise discovers one in workDir.
func loadConfig(configFlag, workDir string, envProvider fs.EnvProvider) (*config.Config, error) {
	path := configFlag
	if path == "" {
		path = envProvider.Get(ConfigEnvVar)
	}
	if path == "" {
		cfg, err := config.Discover(workDir)
		if err != nil {
			return nil, fmt.Errorf("configuration failed: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("configuration failed: %w", err)
	}
	return cfg, nil
}

// useColour reports whether the persistent colour flags leave colour enabled.
func useColour(cmd *cobra.Command) bool {
	noColour, _ := cmd.Flags().GetBool("nocolour")
	return !noColour
}

// isCompletionCommand returns true if the command or any of its parents is the "completion" command.
func isCompletionCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "completion" {
			return true
		}
	}
	return false
}

// flagString returns the value of the named flag, or "" when cmd has no such flag.
func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}
