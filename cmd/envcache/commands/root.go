// Package commands implements the CLI commands for envcache.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/envcache/internal/app"
	"go.trai.ch/envcache/internal/build"
	"go.trai.ch/envcache/internal/core/domain"
)

// CLI represents the command line interface for envcache.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	opts    app.Options
}

// Application represents the application logic interface.
type Application interface {
	Configure(opts app.Options)
	Build(ctx context.Context, opts app.BuildOptions) error
	Hook(ctx context.Context) error
	Clean(ctx context.Context) error
	Status(ctx context.Context) (domain.Status, error)
	Watch(ctx context.Context) error
	DumpEnv(path string) error
}

// ExitError carries a process exit code for a result that is not a failure
// in itself, such as a stale environment reported by status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "envcache",
		Short:         "Cache a project's development environment and load it into the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	// Defined before the version flag so -v stays with --verbose.
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&c.opts.Verbose, "verbose", "v", false, "Show debug logs and stage timings")
	flags.BoolVar(&c.opts.JSON, "json", false, "Write logs as JSON")
	flags.StringVarP(&c.opts.Dir, "directory", "C", ".", "Start looking for the configuration in this directory")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		c.app.Configure(c.opts)
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newHookCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newEnvCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
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
