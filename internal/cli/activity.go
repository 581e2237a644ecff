package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/timekeeper/internal/models"
	"github.com/dmitrijs2005/timekeeper/internal/report"
	"github.com/dmitrijs2005/timekeeper/internal/services"
)

func NewActivityCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Record and browse tracked activities",
	}
	cmd.AddCommand(newActivityAddCommand(app))
	cmd.AddCommand(newActivityEditCommand(app))
	cmd.AddCommand(newActivityListCommand(app))
	cmd.AddCommand(newActivityDeleteCommand(app))
	return cmd
}

type activityAddOptions struct {
	start    string
	end      string
	duration time.Duration
	category string
	tags     []string
}

func newActivityAddCommand(app *App) *cobra.Command {
	opts := &activityAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record an activity",
		Long: `Record an activity.

The interval is given by --start and --end, or by --duration together with
one of them. With only --duration the activity ends now.

Examples:
  timekeeper activity add "Standup" --start "2024-05-01 09:00" --end "2024-05-01 09:15" --category Work
  timekeeper activity add "Run" --duration 45m --category Exercise --tags outdoor,morning`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			start, end, err := resolveInterval(opts, app.now(), app.loc)
			if err != nil {
				return err
			}

			categoryID, err := resolveCategory(cmd, app, opts.category)
			if err != nil {
				return err
			}

			tagIDs, err := app.tags.ResolveNames(ctx, splitNames(opts.tags))
			if err != nil {
				return err
			}

			a, err := app.activities.Add(ctx, models.Activity{
				Description: strings.Join(args, " "),
				StartTime:   start,
				EndTime:     end,
				CategoryID:  categoryID,
				Tags:        tagIDs,
			})
			if err != nil {
				return err
			}
			app.success("Added activity #%d (%s)", a.ID, report.FormatHuman(a.Duration()))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "start time")
	cmd.Flags().StringVar(&opts.end, "end", "", "end time (default now)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "length of the activity, e.g. 1h30m")
	cmd.Flags().StringVar(&opts.category, "category", "", "category name or id")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "comma separated tag names")
	return cmd
}

func resolveInterval(opts *activityAddOptions, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if opts.start != "" {
		if start, err = parseTime(opts.start, loc); err != nil {
			return start, end, err
		}
	}
	if opts.end != "" {
		if end, err = parseTime(opts.end, loc); err != nil {
			return start, end, err
		}
	}

	switch {
	case opts.duration < 0:
		return start, end, errors.New("--duration must be positive")
	case opts.duration > 0 && opts.start != "" && opts.end != "":
		return start, end, errors.New("use at most two of --start, --end and --duration")
	case opts.duration > 0 && opts.start != "":
		end = start.Add(opts.duration)
	case opts.duration > 0:
		if opts.end == "" {
			end = now
		}
		start = end.Add(-opts.duration)
	case opts.start == "":
		return start, end, errors.New("--start or --duration is required")
	case opts.end == "":
		end = now
	}
	return start, end, nil
}

func newActivityEditCommand(app *App) *cobra.Command {
	opts := &activityAddOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id> [description]",
		Short: "Change a recorded activity",
		Long: `Change a recorded activity. Only the given fields change.

--start or --end alone moves that edge. --duration alone keeps the start and
sets a new end; with --start or --end it is measured from that edge.
--category "" and --tags "" clear the field.

Examples:
  timekeeper activity edit 3 "Standup and planning" --duration 30m
  timekeeper activity edit 3 --category Work --tags meeting`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			a, err := app.activities.Get(ctx, ids[0])
			if err != nil {
				return err
			}
			if a == nil {
				return fmt.Errorf("no activity #%d", ids[0])
			}

			if len(args) > 1 {
				a.Description = strings.Join(args[1:], " ")
			}
			if a.StartTime, a.EndTime, err = resolveEdit(opts, a.StartTime, a.EndTime, app.loc); err != nil {
				return err
			}
			if cmd.Flags().Changed("category") {
				if a.CategoryID, err = resolveCategory(cmd, app, opts.category); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("tags") {
				if a.Tags, err = app.tags.ResolveNames(ctx, splitNames(opts.tags)); err != nil {
					return err
				}
			}

			if err := app.activities.Update(ctx, *a); err != nil {
				return err
			}
			app.success("Updated activity #%d (%s)", a.ID, report.FormatHuman(a.Duration()))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "new start time")
	cmd.Flags().StringVar(&opts.end, "end", "", "new end time")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "new length of the activity")
	cmd.Flags().StringVar(&opts.category, "category", "", "category name or id")
	cmd.Flags().StringSliceVar(&opts.tags, "tags", nil, "comma separated tag names, replacing the current ones")
	return cmd
}

// resolveEdit applies the interval flags of an edit to the stored start and
// end.
func resolveEdit(opts *activityAddOptions, start, end time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var err error
	if opts.start != "" {
		if start, err = parseTime(opts.start, loc); err != nil {
			return start, end, err
		}
	}
	if opts.end != "" {
		if end, err = parseTime(opts.end, loc); err != nil {
			return start, end, err
		}
	}

	switch {
	case opts.duration < 0:
		return start, end, errors.New("--duration must be positive")
	case opts.duration == 0:
	case opts.start != "" && opts.end != "":
		return start, end, errors.New("use at most two of --start, --end and --duration")
	case opts.end != "":
		start = end.Add(-opts.duration)
	default:
		end = start.Add(opts.duration)
	}
	return start, end, nil
}

// resolveCategory maps a name or numeric id to a category id. An empty value
// means no category.
func resolveCategory(cmd *cobra.Command, app *App, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	c, err := app.categories.FindByName(cmd.Context(), value)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, fmt.Errorf("no category named %q (see \"timekeeper category list\")", value)
	}
	return c.ID, nil
}

func splitNames(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

type activityListOptions struct {
	category string
	from     string
	to       string
	search   string
	limit    int
}

func newActivityListCommand(app *App) *cobra.Command {
	opts := &activityListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var f services.ActivityFilter
			var err error
			if f.CategoryID, err = resolveCategory(cmd, app, opts.category); err != nil {
				return err
			}
			if opts.from != "" {
				if f.From, err = parseTime(opts.from, app.loc); err != nil {
					return err
				}
			}
			if opts.to != "" {
				if f.To, err = parseTime(opts.to, app.loc); err != nil {
					return err
				}
			}
			f.Search = opts.search

			acts, err := app.activities.List(ctx, f)
			if err != nil {
				return err
			}
			if len(acts) == 0 {
				app.hint("No activities yet. Start tracking with %q", "timekeeper activity add")
				return nil
			}
			if opts.limit > 0 && len(acts) > opts.limit {
				acts = acts[:opts.limit]
			}

			cats, err := app.categories.List(ctx)
			if err != nil {
				return err
			}
			tags, err := app.tags.List(ctx)
			if err != nil {
				return err
			}
			return printActivities(app, acts, cats, tags)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "only this category (name or id)")
	cmd.Flags().StringVar(&opts.from, "from", "", "only activities starting at or after this time")
	cmd.Flags().StringVar(&opts.to, "to", "", "only activities ending at or before this time")
	cmd.Flags().StringVar(&opts.search, "search", "", "match description, category or tag names")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "show at most this many")
	return cmd
}

func printActivities(app *App, acts []models.Activity, cats []models.Category, tags []models.Tag) error {
	catNames := make(map[int64]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}
	tagNames := make(map[int64]string, len(tags))
	for _, t := range tags {
		tagNames[t.ID] = t.Name
	}

	tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tDURATION\tCATEGORY\tTAGS\tDESCRIPTION")
	for _, a := range acts {
		names := make([]string, 0, len(a.Tags))
		for _, id := range a.Tags {
			if n, ok := tagNames[id]; ok {
				names = append(names, n)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			a.StartTime.In(app.loc).Format("2006-01-02 15:04"),
			report.FormatClock(a.Duration()),
			catNames[a.CategoryID],
			strings.Join(names, ", "),
			a.Description)
	}
	return tw.Flush()
}

func newActivityDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete activities by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := app.activities.Delete(cmd.Context(), id); err != nil {
					return err
				}
				app.success("Deleted activity #%d", id)
			}
			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
