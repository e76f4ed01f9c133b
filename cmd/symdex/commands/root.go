// Package commands implements the CLI commands for symdex.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/symdex/internal/app"
	"go.trai.ch/symdex/internal/build"
	"go.trai.ch/symdex/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	ExtractSymbolsIncremental(ctx context.Context, scope string, opts app.ExtractOptions) (*domain.RunResult, error)
	GetIncrementalStats() domain.IncrementalStats
	CleanupIncrementalCache(ctx context.Context) (int, error)
	ClearIncrementalCache(ctx context.Context) error
	Watch(ctx context.Context, onCycle app.CycleFunc) error
}

// LogControl is implemented by loggers whose output mode can be switched.
type LogControl interface {
	SetJSON(enable bool)
	SetQuiet(quiet bool)
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogControl lets the global flags switch the logger's output mode.
func WithLogControl(lc LogControl) Option {
	return func(c *CLI) {
		c.logControl = lc
	}
}

// CLI represents the command line interface for symdex.
type CLI struct {
	app        Application
	logControl LogControl
	rootCmd    *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "symdex",
		Short:         "Incremental symbol extraction for source repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = c.applyLogFlags

	rootCmd.AddCommand(c.newExtractCmd())
	rootCmd.AddCommand(c.newStatsCmd())
	rootCmd.AddCommand(c.newCleanupCmd())
	rootCmd.AddCommand(c.newClearCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) applyLogFlags(cmd *cobra.Command, _ []string) error {
	if c.logControl == nil {
		return nil
	}
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	c.logControl.SetJSON(jsonLogs)
	c.logControl.SetQuiet(quiet)
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
