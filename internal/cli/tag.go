package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewTagCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Browse and remove tags",
	}
	cmd.AddCommand(newTagListCommand(app))
	cmd.AddCommand(newTagDeleteCommand(app))
	return cmd
}

func newTagListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tags by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := app.tags.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				app.hint("No tags yet. Tags are created by %q", "activity add --tags")
				return nil
			}
			tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, t := range tags {
				fmt.Fprintf(tw, "%d\t%s\n", t.ID, t.Name)
			}
			return tw.Flush()
		},
	}
}

func newTagDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete tags; activities keep the reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				t, err := app.tags.Get(ctx, id)
				if err != nil {
					return err
				}
				if t == nil {
					return fmt.Errorf("no tag #%d", id)
				}
				if err := app.tags.Delete(ctx, id); err != nil {
					return err
				}
				app.success("Deleted tag %s (#%d)", t.Name, id)
			}
			return nil
		},
	}
}
