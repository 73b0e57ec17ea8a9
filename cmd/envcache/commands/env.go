package commands

import "github.com/spf13/cobra"

func (c *CLI) newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "env",
		Short:  "Dump the process environment for the builder",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			return c.app.DumpEnv(out)
		},
	}
	cmd.Flags().String("out", "", "File to write the NUL-separated environment to")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
