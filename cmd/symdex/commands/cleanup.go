package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/symdex/internal/ui/report"
)

func (c *CLI) newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove cache entries of deleted files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := c.app.CleanupIncrementalCache(cmd.Context())
			if err != nil {
				return err
			}
			report.New(cmd.OutOrStdout()).Cleanup(removed)
			return nil
		},
	}
}

func (c *CLI) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry and reset statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.ClearIncrementalCache(cmd.Context()); err != nil {
				return err
			}
			report.New(cmd.OutOrStdout()).Cleared()
			return nil
		},
	}
}
