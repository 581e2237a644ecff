// Package report renders activities for people: a CSV export and the
// aggregate views (category breakdown, daily totals, streaks, tag stats).
// Everything here is a pure function of already-loaded entities.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// CSVHeader is the first line written by WriteCSV.
var CSVHeader = []string{"ID", "Description", "Start Time", "End Time", "Duration", "Category", "Tags"}

// isoMillis is JavaScript's Date.toISOString layout, which the CSV keeps for
// spreadsheet compatibility with older exports.
const isoMillis = "2006-01-02T15:04:05.000Z"

// WriteCSV writes one row per activity, in the order given. Category and tag
// ids are resolved to names; unknown ids render as empty (category) or are
// left out (tags).
//
// A field is quoted only when it contains a comma, with embedded quotes
// doubled. This is narrower than RFC 4180 and matches what earlier exports
// produced, so encoding/csv is not used.
func WriteCSV(w io.Writer, activities []models.Activity, categories []models.Category, tags []models.Tag) error {
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	tagNames := make(map[int64]string, len(tags))
	for _, t := range tags {
		tagNames[t.ID] = t.Name
	}

	bw := bufio.NewWriter(w)
	writeRow(bw, CSVHeader)

	for _, a := range activities {
		names := make([]string, 0, len(a.Tags))
		for _, id := range a.Tags {
			if n := tagNames[id]; n != "" {
				names = append(names, n)
			}
		}

		writeRow(bw, []string{
			strconv.FormatInt(a.ID, 10),
			a.Description,
			a.StartTime.UTC().Format(isoMillis),
			a.EndTime.UTC().Format(isoMillis),
			FormatClock(a.Duration()),
			categoryNames[a.CategoryID],
			strings.Join(names, ", "),
		})
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		_, _ = w.WriteString(escapeField(f))
	}
	_ = w.WriteByte('\n')
}

func escapeField(f string) string {
	if !strings.Contains(f, ",") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

// FormatClock renders d as HH:MM:SS, truncating to whole seconds. Hours are
// not wrapped at 24. Negative durations render as 00:00:00.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatHuman renders d as "1h 5m", or "5m" under an hour.
func FormatHuman(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m := total/3600, (total%3600)/60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
