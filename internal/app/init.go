package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andyballingall/cdbtidy/internal/config"
	"github.com/andyballingall/cdbtidy/internal/fs"
)

func NewInitCmd(envProvider fs.EnvProvider) *cobra.Command {
	return &cobra.Command{
		Use:   InitCmdName,
		Short: "Write a commented default " + config.FileName + " to the working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			workDir, err := resolveWorkDir(flagString(cmd, "dir"), envProvider)
			if err != nil {
				return err
			}
			path, err := config.WriteDefault(workDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
