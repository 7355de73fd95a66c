package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCleanCmd(mgr Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove compile_commands.json and the fixes log left by an interrupted pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := mgr.Clean()
			for _, path := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
			}
			if err == nil && len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clean")
			}
			return err
		},
	}
}
