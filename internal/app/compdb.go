package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewCompdbCmd(mgr Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "compdb",
		Short: "Print the compilation database a tidy pass would write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := mgr.RenderDatabase()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
