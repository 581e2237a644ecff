package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewBackupCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole dataset as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(app))
	cmd.AddCommand(newBackupImportCommand(app))
	return cmd
}

func newBackupExportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a JSON backup to file, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return app.backup.WriteTo(cmd.Context(), app.out)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := app.backup.WriteTo(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.success("Backup written to %s", args[0])
			return nil
		},
	}
}

func newBackupImportCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if !yes {
				ok, err := Confirm(app.reader, "This replaces all activities, categories and tags. Continue?", app.out)
				if err != nil {
					return err
				}
				if !ok {
					app.warn("Import cancelled")
					return nil
				}
			}

			stop := app.startSpinner("Importing...")
			report, err := app.backup.Import(cmd.Context(), f)
			stop()
			if err != nil {
				return err
			}

			app.success("Imported %d categories, %d tags, %d activities",
				report.Categories, report.Tags, report.Activities)
			if n := report.DanglingCategoryRefs + report.DanglingTagRefs; n > 0 {
				app.warn("%d reference(s) point at categories or tags missing from the backup", n)
			}
			for _, fail := range report.Failed {
				fmt.Fprintf(app.out, "  %s %s #%d: %v\n", color.RedString("✗"), fail.Collection, fail.ID, fail.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
