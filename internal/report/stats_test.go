package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

var now = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

func act(id int64, start time.Time, d time.Duration, cat int64, tags ...int64) models.Activity {
	return models.Activity{ID: id, Description: "a", StartTime: start, EndTime: start.Add(d), CategoryID: cat, Tags: tags}
}

func daysAgo(n int) time.Time {
	return time.Date(2024, 6, 28-n, 10, 0, 0, 0, time.UTC)
}

func TestCategoryBreakdown(t *testing.T) {
	cats := []models.Category{
		{ID: 1, Name: "Work", Color: "#4285f4"},
		{ID: 2, Name: "Study", Color: "#34a853"},
		{ID: 3, Name: "Idle", Color: "#000000"},
	}
	acts := []models.Activity{
		act(1, daysAgo(0), time.Hour, 1),
		act(2, daysAgo(1), 90*time.Minute, 2),
		act(3, daysAgo(2), 2*time.Hour, 1),
		act(4, daysAgo(2), 5*time.Hour, 42),
	}

	got := CategoryBreakdown(acts, cats)
	require.Len(t, got, 2)
	assert.Equal(t, CategoryTotal{CategoryID: 1, Name: "Work", Color: "#4285f4", Duration: 3 * time.Hour}, got[0])
	assert.Equal(t, "Study", got[1].Name)
	assert.InDelta(t, 1.5, got[1].Hours(), 1e-9)

	assert.Empty(t, CategoryBreakdown(nil, cats))
}

func TestDailyTotals(t *testing.T) {
	acts := []models.Activity{
		act(1, daysAgo(0), time.Hour, 1),
		act(2, daysAgo(0), 30*time.Minute, 1),
		act(3, daysAgo(2), 2*time.Hour, 1),
		act(4, daysAgo(20), 9*time.Hour, 1),
		// 23:30 UTC counts for the day it starts, even though it ends tomorrow
		act(5, time.Date(2024, 6, 26, 23, 30, 0, 0, time.UTC), time.Hour, 1),
	}

	got := DailyTotals(acts, now, 3)
	assert.Equal(t, []DayTotal{
		{Date: "2024-06-26", Duration: 3 * time.Hour},
		{Date: "2024-06-27", Duration: 0},
		{Date: "2024-06-28", Duration: 90 * time.Minute},
	}, got)

	assert.Len(t, DailyTotals(acts, now, 14), 14)
	assert.Nil(t, DailyTotals(acts, now, 0))
}

func TestDailyTotals_UsesUTCDate(t *testing.T) {
	// 2024-06-28 00:30 in UTC+2 is still 2024-06-27 in UTC
	east := time.FixedZone("EET", 2*3600)
	acts := []models.Activity{act(1, time.Date(2024, 6, 28, 0, 30, 0, 0, east), time.Hour, 1)}

	got := DailyTotals(acts, now, 2)
	assert.Equal(t, time.Hour, got[0].Duration)
	assert.Equal(t, "2024-06-27", got[0].Date)
	assert.Zero(t, got[1].Duration)
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name    string
		days    []int
		current int
		longest int
	}{
		{"nothing tracked", nil, 0, 0},
		{"today only", []int{0}, 1, 1},
		{"three days running", []int{0, 1, 2}, 3, 3},
		{"gap yesterday", []int{0, 2, 3, 4, 5}, 1, 4},
		{"not today", []int{1, 2}, 0, 2},
		{"outside window ignored", []int{0, 28, 29, 30, 31, 32}, 1, 1},
		{"whole window", seq(0, 27), 28, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acts := make([]models.Activity, 0, len(tt.days))
			for i, d := range tt.days {
				acts = append(acts, act(int64(i+1), daysAgo(d), time.Hour, 1))
			}

			s := ComputeStreaks(acts, now)
			assert.Equal(t, tt.current, s.Current)
			assert.Equal(t, tt.longest, s.Longest)
			require.Len(t, s.Calendar, StreakWindow)
			assert.Equal(t, "2024-06-01", s.Calendar[0].Date)
			assert.Equal(t, "2024-06-28", s.Calendar[StreakWindow-1].Date)
		})
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestTagStats(t *testing.T) {
	tags := []models.Tag{{ID: 1, Name: "coding"}, {ID: 2, Name: "review"}}
	acts := []models.Activity{
		act(1, daysAgo(0), time.Hour, 1, 1, 2),
		act(2, daysAgo(1), 2*time.Hour, 1, 1),
		act(3, daysAgo(1), time.Hour, 1, 9),
	}

	got := TagStats(acts, tags)
	assert.Equal(t, []TagTotal{
		{TagID: 1, Name: "coding", Count: 2, Duration: 3 * time.Hour},
		{TagID: 2, Name: "review", Count: 1, Duration: time.Hour},
	}, got)
}

func TestComputeMetrics(t *testing.T) {
	acts := []models.Activity{
		act(1, daysAgo(0), 2*time.Hour, 1),
		act(2, daysAgo(3), 5*time.Hour, 1),
		act(3, daysAgo(30), 10*time.Hour, 1),
	}

	m := ComputeMetrics(acts, now)
	assert.Equal(t, 17*time.Hour, m.TotalTracked)
	assert.Equal(t, time.Hour, m.AverageDaily)
	assert.Equal(t, 3, m.TotalActivities)
	assert.Equal(t, 3, m.DaysTracked)
}
