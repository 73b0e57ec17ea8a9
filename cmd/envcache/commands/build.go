package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/envcache/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the environment unless the cached one is up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.app.Build(cmd.Context(), app.BuildOptions{Force: force})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Rebuild even if the cached environment is up to date")
	return cmd
}
