package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/envcache/internal/core/domain"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the cached environment matches the current inputs",
		Long: "Report whether the cached environment matches the current inputs.\n" +
			"Exits 0 when it is up to date, 1 when it is stale and 2 when there is none.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := c.app.Status(cmd.Context())
			if err != nil {
				return err
			}
			if status != domain.StatusOkay {
				return &ExitError{Code: status.ExitCode()}
			}
			return nil
		},
	}
}
