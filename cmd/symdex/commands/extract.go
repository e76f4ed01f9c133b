package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/symdex/internal/app"
	"go.trai.ch/symdex/internal/ui/report"
)

func (c *CLI) newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Extract symbols, reusing cached results for unchanged files",
		Long: "Extract symbols from a file, a directory or, without a path, the whole repository.\n" +
			"Files whose modification time, size and commit are unchanged are served from the cache.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verify, _ := cmd.Flags().GetBool("verify")
			showStats, _ := cmd.Flags().GetBool("stats")

			scope := ""
			if len(args) == 1 {
				scope = args[0]
			}

			res, err := c.app.ExtractSymbolsIncremental(cmd.Context(), scope, app.ExtractOptions{VerifyHash: verify})
			if err != nil {
				return err
			}

			r := report.New(cmd.OutOrStdout())
			r.Run(res)
			if showStats {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				r.Stats(c.app.GetIncrementalStats())
			}
			return nil
		},
	}
	cmd.Flags().Bool("verify", false, "Compare content hashes even when file signals match")
	cmd.Flags().Bool("stats", false, "Print cache statistics after extraction")
	return cmd
}
