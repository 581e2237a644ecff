package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/timekeeper/internal/report"
	"github.com/dmitrijs2005/timekeeper/internal/services"
)

func NewExportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export activities in other formats",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "csv [file]",
		Short: "Write all activities as CSV to file, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			acts, err := app.activities.List(ctx, services.ActivityFilter{})
			if err != nil {
				return err
			}
			cats, err := app.categories.List(ctx)
			if err != nil {
				return err
			}
			tags, err := app.tags.List(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return report.WriteCSV(app.out, acts, cats, tags)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := report.WriteCSV(f, acts, cats, tags); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.success("Exported %d activities to %s", len(acts), args[0])
			return nil
		},
	})
	return cmd
}
