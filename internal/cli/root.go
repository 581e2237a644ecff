package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// skipUnlock marks commands that run against a locked store.
const skipUnlock = "timekeeper/skip-unlock"

// NewRootCommand creates the root command bound to app.
//
// The global flags are declared here for help output and validation; their
// values are read by config.LoadConfig from the raw arguments.
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "timekeeper",
		Short:         "Personal time tracking with an optionally encrypted local store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || strings.HasPrefix(cmd.CommandPath(), "timekeeper completion") {
				return nil
			}
			ctx := cmd.Context()
			if err := app.Open(ctx); err != nil {
				return err
			}
			if cmd.Annotations[skipUnlock] == "true" {
				return nil
			}
			return app.unlock(ctx)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to a JSON or YAML config file")
	cmd.PersistentFlags().StringP("db", "d", "", "path to the SQLite database file")
	cmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewActivityCommand(app))
	cmd.AddCommand(NewCategoryCommand(app))
	cmd.AddCommand(NewTagCommand(app))
	cmd.AddCommand(NewEncryptionCommand(app))
	cmd.AddCommand(NewBackupCommand(app))
	cmd.AddCommand(NewExportCommand(app))
	cmd.AddCommand(NewReportCommand(app))

	return cmd
}

// Execute runs the command line in args against the process stdio and
// returns the exit code.
func Execute(ctx context.Context, args []string) int {
	app := NewApp(args, os.Stdin, os.Stdout, os.Stderr)
	app.spin = term.IsTerminal(int(os.Stderr.Fd()))
	return run(ctx, app)
}

func run(ctx context.Context, app *App) int {
	defer func() { _ = app.Close() }()

	cmd := NewRootCommand(app)
	cmd.SetArgs(app.args)
	cmd.SetOut(app.out)
	cmd.SetErr(app.errOut)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.errOut, describeError(err))
		return 1
	}
	return 0
}
