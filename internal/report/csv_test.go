package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteCSV_Golden(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	categories := []models.Category{
		{ID: 1, Name: "Work", Color: "#4285f4"},
		{ID: 2, Name: "Study, Deep", Color: "#34a853"},
	}
	tags := []models.Tag{
		{ID: 1, Name: "coding"},
		{ID: 2, Name: "review"},
		{ID: 3, Name: `say "hi"`},
	}
	activities := []models.Activity{
		{ID: 1, Description: "Standup", StartTime: day, EndTime: day.Add(15 * time.Minute), CategoryID: 1, Tags: []int64{1}},
		{
			ID:          2,
			Description: `Write "report", draft`,
			StartTime:   day.Add(time.Hour + 250*time.Millisecond),
			EndTime:     day.Add(3*time.Hour + 30*time.Minute + 45*time.Second + 999*time.Millisecond),
			CategoryID:  2,
			Tags:        []int64{1, 2},
		},
		{
			ID:          7,
			Description: `He said "go"`,
			StartTime:   time.Date(2024, 3, 11, 8, 0, 0, 0, cet),
			EndTime:     time.Date(2024, 3, 11, 8, 0, 0, 0, cet).Add(26 * time.Hour),
			CategoryID:  99,
			Tags:        []int64{99, 3},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, activities, categories, tags))

	newGoldie(t).Assert(t, "activities_csv", buf.Bytes())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil, nil))

	newGoldie(t).Assert(t, "empty_csv", buf.Bytes())
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`quote "only"`, `quote "only"`},
		{`both "x", y`, `"both ""x"", y"`},
		{"new\nline", "new\nline"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeField(tt.in), tt.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:00:00", FormatClock(-time.Minute))
	assert.Equal(t, "00:00:59", FormatClock(59*time.Second+999*time.Millisecond))
	assert.Equal(t, "01:01:01", FormatClock(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "100:00:00", FormatClock(100*time.Hour))
}

func TestFormatHuman(t *testing.T) {
	assert.Equal(t, "0m", FormatHuman(30*time.Second))
	assert.Equal(t, "45m", FormatHuman(45*time.Minute))
	assert.Equal(t, "2h 5m", FormatHuman(2*time.Hour+5*time.Minute))
}
