package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/symdex/internal/ui/report"
)

func (c *CLI) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report.New(cmd.OutOrStdout()).Stats(c.app.GetIncrementalStats())
			return nil
		},
	}
}
