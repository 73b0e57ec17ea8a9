package commands

import "github.com/spf13/cobra"

func (c *CLI) newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Print the shell script that loads the environment",
		Long: "Print a bash script that exports the cached environment and declares the files to watch.\n" +
			"Meant to be evaluated from .envrc: eval \"$(envcache hook)\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Hook(cmd.Context())
		},
	}
}
