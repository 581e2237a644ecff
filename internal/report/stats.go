package report

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// StreakWindow is the number of days the streak calendar looks back.
const StreakWindow = 28

const dayLayout = "2006-01-02"

// dayKey buckets t by its UTC calendar date.
func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// CategoryTotal is the time spent in one category.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Color      string
	Duration   time.Duration
}

// Hours is Duration in fractional hours.
func (c CategoryTotal) Hours() float64 { return c.Duration.Hours() }

// CategoryBreakdown sums activity durations per category, largest first.
// Activities whose category does not exist are left out.
func CategoryBreakdown(activities []models.Activity, categories []models.Category) []CategoryTotal {
	byID := make(map[int64]*CategoryTotal, len(categories))
	for _, c := range categories {
		byID[c.ID] = &CategoryTotal{CategoryID: c.ID, Name: c.Name, Color: c.Color}
	}

	used := make(map[int64]struct{})
	for _, a := range activities {
		t, ok := byID[a.CategoryID]
		if !ok {
			continue
		}
		t.Duration += a.Duration()
		used[a.CategoryID] = struct{}{}
	}

	out := make([]CategoryTotal, 0, len(used))
	for id := range used {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration == out[j].Duration {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Duration > out[j].Duration
	})
	return out
}

// DayTotal is the tracked time of activities starting on Date (UTC).
type DayTotal struct {
	Date     string
	Duration time.Duration
}

// DailyTotals returns one entry per day for the days days ending with now's
// UTC date, oldest first. An activity counts towards the day it starts on.
func DailyTotals(activities []models.Activity, now time.Time, days int) []DayTotal {
	if days <= 0 {
		return nil
	}
	out := make([]DayTotal, days)
	index := make(map[string]int, days)
	today := now.UTC()
	for i := 0; i < days; i++ {
		key := dayKey(today.AddDate(0, 0, -(days - 1 - i)))
		out[i] = DayTotal{Date: key}
		index[key] = i
	}

	for _, a := range activities {
		if i, ok := index[dayKey(a.StartTime)]; ok {
			out[i].Duration += a.Duration()
		}
	}
	return out
}

// DayMark is one cell of the streak calendar.
type DayMark struct {
	Date        string
	HasActivity bool
}

// Streaks describes activity continuity over the last StreakWindow days.
// Current counts consecutive active days ending today; it is zero when
// nothing was tracked today. Longest is the longest run inside the window.
type Streaks struct {
	Current  int
	Longest  int
	Calendar []DayMark
}

// ComputeStreaks evaluates streaks relative to now's UTC date.
func ComputeStreaks(activities []models.Activity, now time.Time) Streaks {
	active := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		active[dayKey(a.StartTime)] = struct{}{}
	}

	today := now.UTC()
	s := Streaks{Calendar: make([]DayMark, StreakWindow)}
	for i := 0; i < StreakWindow; i++ {
		key := dayKey(today.AddDate(0, 0, -(StreakWindow - 1 - i)))
		_, ok := active[key]
		s.Calendar[i] = DayMark{Date: key, HasActivity: ok}
	}

	for i := StreakWindow - 1; i >= 0 && s.Calendar[i].HasActivity; i-- {
		s.Current++
	}

	run := 0
	for _, d := range s.Calendar {
		if d.HasActivity {
			run++
			s.Longest = max(s.Longest, run)
			continue
		}
		run = 0
	}
	return s
}

// TagTotal is how often a tag was used and the time it covers.
type TagTotal struct {
	TagID    int64
	Name     string
	Count    int
	Duration time.Duration
}

// TagStats counts tag usage, most used first. Unknown tag ids are ignored.
func TagStats(activities []models.Activity, tags []models.Tag) []TagTotal {
	names := make(map[int64]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	byID := make(map[int64]*TagTotal)
	for _, a := range activities {
		for _, id := range a.Tags {
			name, ok := names[id]
			if !ok {
				continue
			}
			t := byID[id]
			if t == nil {
				t = &TagTotal{TagID: id, Name: name}
				byID[id] = t
			}
			t.Count++
			t.Duration += a.Duration()
		}
	}

	out := make([]TagTotal, 0, len(byID))
	for _, t := range byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].TagID < out[j].TagID
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Metrics are headline numbers across all activities.
type Metrics struct {
	TotalTracked    time.Duration
	AverageDaily    time.Duration // over the last 7 days, idle days included
	TotalActivities int
	DaysTracked     int
}

func ComputeMetrics(activities []models.Activity, now time.Time) Metrics {
	m := Metrics{TotalActivities: len(activities)}
	days := make(map[string]struct{})
	for _, a := range activities {
		m.TotalTracked += a.Duration()
		days[dayKey(a.StartTime)] = struct{}{}
	}
	m.DaysTracked = len(days)

	var week time.Duration
	for _, d := range DailyTotals(activities, now, 7) {
		week += d.Duration
	}
	m.AverageDaily = week / 7
	return m
}
