package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/timekeeper/internal/report"
	"github.com/dmitrijs2005/timekeeper/internal/services"
)

func NewReportCommand(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize tracked time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
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

			now := app.now()
			m := report.ComputeMetrics(acts, now)
			fmt.Fprintln(app.out, color.New(color.Bold).Sprint("Overview"))
			fmt.Fprintf(app.out, "  Total tracked:   %s\n", report.FormatHuman(m.TotalTracked))
			fmt.Fprintf(app.out, "  Daily average:   %s (last 7 days)\n", report.FormatHuman(m.AverageDaily))
			fmt.Fprintf(app.out, "  Activities:      %d\n", m.TotalActivities)
			fmt.Fprintf(app.out, "  Days tracked:    %d\n", m.DaysTracked)

			tw := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)

			if breakdown := report.CategoryBreakdown(acts, cats); len(breakdown) > 0 {
				fmt.Fprintln(app.out)
				fmt.Fprintln(app.out, color.New(color.Bold).Sprint("By category"))
				for _, c := range breakdown {
					fmt.Fprintf(tw, "  %s\t%.1fh\t%s\n", c.Name, c.Hours(), report.FormatHuman(c.Duration))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			fmt.Fprintln(app.out)
			fmt.Fprintln(app.out, color.New(color.Bold).Sprintf("Last %d days", days))
			for _, d := range report.DailyTotals(acts, now, days) {
				fmt.Fprintf(tw, "  %s\t%s\n", d.Date, report.FormatHuman(d.Duration))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := report.ComputeStreaks(acts, now)
			fmt.Fprintln(app.out)
			fmt.Fprintln(app.out, color.New(color.Bold).Sprint("Streaks"))
			fmt.Fprintf(app.out, "  Current: %d day(s), longest: %d day(s)\n", s.Current, s.Longest)
			fmt.Fprintf(app.out, "  %s\n", calendar(s.Calendar))

			if ts := report.TagStats(acts, tags); len(ts) > 0 {
				fmt.Fprintln(app.out)
				fmt.Fprintln(app.out, color.New(color.Bold).Sprint("Tags"))
				for _, t := range ts {
					fmt.Fprintf(tw, "  %s\t%d\t%s\n", t.Name, t.Count, report.FormatHuman(t.Duration))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "number of days in the daily totals")
	return cmd
}

// calendar renders the streak window oldest first, one cell per day.
func calendar(marks []report.DayMark) string {
	var b strings.Builder
	for i, d := range marks {
		if i > 0 && i%7 == 0 {
			b.WriteByte(' ')
		}
		if d.HasActivity {
			b.WriteString(color.GreenString("■"))
		} else {
			b.WriteString("·")
		}
	}
	return b.String()
}
