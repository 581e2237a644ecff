package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

func NewCategoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage activity categories",
	}
	cmd.AddCommand(newCategoryAddCommand(app))
	cmd.AddCommand(newCategoryEditCommand(app))
	cmd.AddCommand(newCategoryListCommand(app))
	cmd.AddCommand(newCategoryDeleteCommand(app))
	cmd.AddCommand(newCategorySeedCommand(app))
	return cmd
}

func newCategoryAddCommand(app *App) *cobra.Command {
	var colorToken string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			existing, err := app.categories.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			if existing != nil {
				app.warn("Category %q already exists as #%d", existing.Name, existing.ID)
				return nil
			}

			c, err := app.categories.Add(ctx, args[0], colorToken)
			if err != nil {
				return err
			}
			app.success("Added category %s as #%d", color.CyanString(c.Name), c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&colorToken, "color", "#607d8b", "display color")
	return cmd
}

func newCategoryListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := app.categories.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				app.hint("No categories. Run %q to add the defaults", "timekeeper category seed")
				return nil
			}

			tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
			for _, c := range cats {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Color)
			}
			return tw.Flush()
		},
	}
}

// findCategory looks a category up by id or name.
func findCategory(cmd *cobra.Command, app *App, value string) (*models.Category, error) {
	ctx := cmd.Context()

	var c *models.Category
	var err error
	if id, perr := strconv.ParseInt(value, 10, 64); perr == nil {
		if c, err = app.categories.Get(ctx, id); err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("no category #%d", id)
		}
		return c, nil
	}

	if c, err = app.categories.FindByName(ctx, value); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("no category named %q", value)
	}
	return c, nil
}

func newCategoryEditCommand(app *App) *cobra.Command {
	var name, colorToken string

	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("color") {
				return fmt.Errorf("nothing to change, use --name or --color")
			}

			c, err := findCategory(cmd, app, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				c.Name = name
			}
			if cmd.Flags().Changed("color") {
				c.Color = colorToken
			}

			if err := app.categories.Update(cmd.Context(), *c); err != nil {
				return err
			}
			app.success("Updated category #%d (%s)", c.ID, color.CyanString(c.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&colorToken, "color", "", "new display color")
	return cmd
}

func newCategoryDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a category; its activities keep the reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := findCategory(cmd, app, args[0])
			if err != nil {
				return err
			}
			if err := app.categories.Delete(cmd.Context(), c.ID); err != nil {
				return err
			}
			app.success("Deleted category #%d", c.ID)
			return nil
		},
	}
}

func newCategorySeedCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the default categories to an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.categories.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				app.warn("Categories already exist, nothing seeded")
				return nil
			}
			app.success("Added %d default categories", n)
			return nil
		},
	}
}
