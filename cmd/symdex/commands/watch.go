package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/symdex/internal/core/domain"
	"go.trai.ch/symdex/internal/ui/report"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-extract symbols whenever source files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := report.New(cmd.OutOrStdout())
			return c.app.Watch(cmd.Context(), func(res *domain.RunResult, err error) {
				if err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return
				}
				r.Run(res)
			})
		},
	}
}
