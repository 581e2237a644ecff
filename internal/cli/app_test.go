package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timekeeper/internal/config"
	"github.com/dmitrijs2005/timekeeper/internal/models"
	"github.com/dmitrijs2005/timekeeper/internal/report"
)

var testNow = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type result struct {
	code   int
	stdout string
	stderr string
}

// runCLI executes one command line against db with stdin as input.
func runCLI(t *testing.T, db, stdin string, args ...string) result {
	t.Helper()
	t.Setenv(config.EnvKDFIterations, "1")

	var out, errOut bytes.Buffer
	app := NewApp(append([]string{"-d", db}, args...), strings.NewReader(stdin), &out, &errOut)
	app.now = func() time.Time { return testNow }
	app.loc = time.UTC

	code := run(context.Background(), app)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if i >= len(pws) {
			return nil, errors.New("unexpected password prompt")
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tk.db")
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	r := runCLI(t, db, "", args...)
	require.Equal(t, 0, r.code, "stderr: %s", r.stderr)
	return r.stdout
}

func TestCategorySeedAndList(t *testing.T) {
	db := tempDB(t)

	out := mustRun(t, db, "category", "list")
	assert.Contains(t, out, "No categories")

	out = mustRun(t, db, "category", "seed")
	assert.Contains(t, out, "Added 5 default categories")

	out = mustRun(t, db, "category", "seed")
	assert.Contains(t, out, "nothing seeded")

	out = mustRun(t, db, "category", "list")
	for _, name := range []string{"Entertainment", "Exercise", "Personal", "Study", "Work"} {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "Exercise"), strings.Index(out, "Work"))
}

func TestCategoryAddAndDelete(t *testing.T) {
	db := tempDB(t)

	out := mustRun(t, db, "category", "add", "Reading", "--color", "#123456")
	assert.Contains(t, out, "Added category Reading as #1")

	out = mustRun(t, db, "category", "add", "reading")
	assert.Contains(t, out, "already exists")

	out = mustRun(t, db, "category", "delete", "READING")
	assert.Contains(t, out, "Deleted category #1")

	r := runCLI(t, db, "", "category", "delete", "Nope")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, `no category named "Nope"`)
}

func TestActivityAddListDelete(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "seed")

	out := mustRun(t, db, "activity", "add", "Standup",
		"--start", "2024-06-28 09:00", "--end", "2024-06-28 09:15",
		"--category", "work", "--tags", "meeting, team")
	assert.Contains(t, out, "Added activity #1 (15m)")

	out = mustRun(t, db, "activity", "add", "Run", "--duration", "45m", "--category", "Exercise", "--tags", "outdoor")
	assert.Contains(t, out, "Added activity #2 (45m)")

	out = mustRun(t, db, "activity", "list")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "meeting, team")
	assert.Contains(t, out, "00:15:00")
	assert.Less(t, strings.Index(out, "Run"), strings.Index(out, "Standup"), "newest first")

	out = mustRun(t, db, "activity", "list", "--search", "TEAM")
	assert.Contains(t, out, "Standup")
	assert.NotContains(t, out, "Run")

	out = mustRun(t, db, "activity", "list", "--category", "Exercise")
	assert.Contains(t, out, "Run")
	assert.NotContains(t, out, "Standup")

	out = mustRun(t, db, "activity", "list", "--limit", "1")
	assert.Contains(t, out, "Run")
	assert.NotContains(t, out, "Standup")

	out = mustRun(t, db, "tag", "list")
	for _, name := range []string{"meeting", "outdoor", "team"} {
		assert.Contains(t, out, name)
	}

	out = mustRun(t, db, "activity", "delete", "1")
	assert.Contains(t, out, "Deleted activity #1")
	out = mustRun(t, db, "activity", "list")
	assert.NotContains(t, out, "Standup")
}

// exportedActivity reads one activity back through a JSON backup.
func exportedActivity(t *testing.T, db string, id int64) models.Activity {
	t.Helper()
	var b models.Backup
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, db, "backup", "export")), &b))
	for _, a := range *b.Activities {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("activity #%d not exported", id)
	return models.Activity{}
}

func TestActivityEdit(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "seed")
	mustRun(t, db, "activity", "add", "Standup",
		"--start", "2024-06-28 09:00", "--end", "2024-06-28 09:15",
		"--category", "Work", "--tags", "meeting")
	before := exportedActivity(t, db, 1)

	out := mustRun(t, db, "activity", "edit", "1", "Standup and planning", "--duration", "40m",
		"--category", "Study", "--tags", "planning,meeting")
	assert.Contains(t, out, "Updated activity #1 (40m)")

	after := exportedActivity(t, db, 1)
	assert.Equal(t, "Standup and planning", after.Description)
	assert.True(t, before.StartTime.Equal(after.StartTime))
	assert.True(t, after.EndTime.Equal(time.Date(2024, 6, 28, 9, 40, 0, 0, time.UTC)))
	assert.NotEqual(t, before.CategoryID, after.CategoryID)
	assert.Len(t, after.Tags, 2)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt), "creation time is kept")

	// untouched flags keep their values
	out = mustRun(t, db, "activity", "edit", "1", "--start", "2024-06-28 09:10")
	assert.Contains(t, out, "(30m)")
	kept := exportedActivity(t, db, 1)
	assert.Equal(t, "Standup and planning", kept.Description)
	assert.Equal(t, after.CategoryID, kept.CategoryID)
	assert.Equal(t, after.Tags, kept.Tags)

	mustRun(t, db, "activity", "edit", "1", "--category", "", "--tags", "")
	cleared := exportedActivity(t, db, 1)
	assert.Zero(t, cleared.CategoryID)
	assert.Empty(t, cleared.Tags)

	r := runCLI(t, db, "", "activity", "edit", "9", "--duration", "1h")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no activity #9")

	r = runCLI(t, db, "", "activity", "edit", "1", "--end", "2024-06-28 08:00")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "end time must be after start time")
}

func TestResolveEdit(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 6, 28, h, m, 0, 0, time.UTC) }
	start, end := at(9, 0), at(10, 0)

	tests := []struct {
		name      string
		opts      activityAddOptions
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"nothing", activityAddOptions{}, start, end},
		{"start moves start", activityAddOptions{start: "2024-06-28 08:30"}, at(8, 30), end},
		{"end moves end", activityAddOptions{end: "2024-06-28 11:00"}, start, at(11, 0)},
		{"duration keeps start", activityAddOptions{duration: 20 * time.Minute}, start, at(9, 20)},
		{"duration from new start", activityAddOptions{start: "2024-06-28 12:00", duration: time.Hour}, at(12, 0), at(13, 0)},
		{"duration back from end", activityAddOptions{end: "2024-06-28 12:00", duration: 30 * time.Minute}, at(11, 30), at(12, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, err := resolveEdit(&tt.opts, start, end, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(s), "start %s", s)
			assert.True(t, tt.wantEnd.Equal(e), "end %s", e)
		})
	}

	_, _, err := resolveEdit(&activityAddOptions{start: "2024-06-28", end: "2024-06-29", duration: time.Hour}, start, end, time.UTC)
	require.Error(t, err)
	_, _, err = resolveEdit(&activityAddOptions{duration: -time.Hour}, start, end, time.UTC)
	require.Error(t, err)
}

func TestCategoryEdit(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "add", "Reading", "--color", "#111111")

	out := mustRun(t, db, "category", "edit", "reading", "--name", "Books")
	assert.Contains(t, out, "Updated category #1 (Books)")

	out = mustRun(t, db, "category", "edit", "1", "--color", "#222222")
	assert.Contains(t, out, "Updated category #1 (Books)")

	out = mustRun(t, db, "category", "list")
	assert.Contains(t, out, "Books")
	assert.Contains(t, out, "#222222")
	assert.NotContains(t, out, "Reading")

	r := runCLI(t, db, "", "category", "edit", "1")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "nothing to change")

	r = runCLI(t, db, "", "category", "edit", "7", "--name", "X")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no category #7")

	r = runCLI(t, db, "", "category", "edit", "1", "--name", " ")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "category name must not be empty")
}

func TestTagDelete(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "activity", "add", "Run", "--duration", "30m", "--tags", "outdoor,morning")

	out := mustRun(t, db, "tag", "delete", "1")
	assert.Contains(t, out, "Deleted tag outdoor (#1)")

	out = mustRun(t, db, "tag", "list")
	assert.NotContains(t, out, "outdoor")
	assert.Contains(t, out, "morning")

	// the activity keeps its reference, the list only shows known tags
	assert.Equal(t, []int64{1, 2}, exportedActivity(t, db, 1).Tags)
	out = mustRun(t, db, "activity", "list")
	assert.NotContains(t, out, "outdoor")

	r := runCLI(t, db, "", "tag", "delete", "1")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no tag #1")
}

func TestActivityAdd_Errors(t *testing.T) {
	db := tempDB(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no interval", []string{"x"}, "--start or --duration is required"},
		{"over specified", []string{"x", "--start", "2024-06-28", "--end", "2024-06-29", "--duration", "1h"}, "at most two"},
		{"bad time", []string{"x", "--start", "noon"}, "unrecognized time"},
		{"end before start", []string{"x", "--start", "2024-06-28 10:00", "--end", "2024-06-28 09:00"}, "validation"},
		{"unknown category", []string{"x", "--duration", "1h", "--category", "Gardening"}, `no category named "Gardening"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, db, "", append([]string{"activity", "add"}, tt.args...)...)
			assert.Equal(t, 1, r.code)
			assert.Contains(t, r.stderr, tt.want)
		})
	}

	r := runCLI(t, db, "", "activity", "delete", "abc")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, `invalid id "abc"`)
}

func TestResolveInterval(t *testing.T) {
	start := "2024-06-28 09:00"
	end := "2024-06-28 10:30"
	at := func(h, m int) time.Time { return time.Date(2024, 6, 28, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		opts      activityAddOptions
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"start and end", activityAddOptions{start: start, end: end}, at(9, 0), at(10, 30)},
		{"start only ends now", activityAddOptions{start: start}, at(9, 0), testNow},
		{"start and duration", activityAddOptions{start: start, duration: 20 * time.Minute}, at(9, 0), at(9, 20)},
		{"end and duration", activityAddOptions{end: end, duration: time.Hour}, at(9, 30), at(10, 30)},
		{"duration ends now", activityAddOptions{duration: time.Hour}, testNow.Add(-time.Hour), testNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, err := resolveInterval(&tt.opts, testNow, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(s), "start %s", s)
			assert.True(t, tt.wantEnd.Equal(e), "end %s", e)
		})
	}

	_, _, err := resolveInterval(&activityAddOptions{duration: -time.Minute}, testNow, time.UTC)
	require.Error(t, err)
}

func TestEncryptionLifecycle(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "seed")
	mustRun(t, db, "activity", "add", "Standup", "--start", "2024-06-28 09:00", "--end", "2024-06-28 09:15", "--tags", "team")

	out := mustRun(t, db, "encryption", "status")
	assert.Contains(t, out, "disabled")

	stubPasswords(t, "hunter2", "hunter2")
	out = mustRun(t, db, "encryption", "enable")
	assert.Contains(t, out, "Converted 7, skipped 0, failed 0 record(s)")
	assert.Contains(t, out, "Encryption enabled")

	// status works without a password
	out = mustRun(t, db, "encryption", "status")
	assert.Contains(t, out, "enabled")

	stubPasswords(t, "hunter2", "hunter2")
	r := runCLI(t, db, "", "encryption", "enable")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "encryption already enabled")
	assert.Contains(t, r.stderr, "timekeeper encryption disable")

	stubPasswords(t, "wrong")
	r = runCLI(t, db, "", "activity", "list")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "wrong password")
	assert.NotContains(t, r.stdout, "Standup")

	stubPasswords(t, "hunter2")
	out = mustRun(t, db, "activity", "list")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "team")

	stubPasswords(t, "hunter2")
	out = mustRun(t, db, "encryption", "disable")
	assert.Contains(t, out, "Converted 7, skipped 0, failed 0 record(s)")
	assert.Contains(t, out, "Encryption disabled")

	out = mustRun(t, db, "encryption", "status")
	assert.Contains(t, out, "disabled")
	out = mustRun(t, db, "activity", "list")
	assert.Contains(t, out, "Standup")
}

func TestEncryptionEnable_PasswordMismatch(t *testing.T) {
	db := tempDB(t)

	stubPasswords(t, "one", "two")
	r := runCLI(t, db, "", "encryption", "enable")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "passwords do not match")

	out := mustRun(t, db, "encryption", "status")
	assert.Contains(t, out, "disabled")
}

func TestEncryptionDisable_Plaintext(t *testing.T) {
	out := mustRun(t, tempDB(t), "encryption", "disable")
	assert.Contains(t, out, "not enabled")
}

func TestBackupExportImport(t *testing.T) {
	src := tempDB(t)
	mustRun(t, src, "category", "seed")
	mustRun(t, src, "activity", "add", "Standup", "--start", "2024-06-28 09:00", "--end", "2024-06-28 09:15",
		"--category", "Work", "--tags", "team")

	file := filepath.Join(t.TempDir(), "backup.json")
	out := mustRun(t, src, "backup", "export", file)
	assert.Contains(t, out, "Backup written to")

	stdout := mustRun(t, src, "backup", "export")
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), stdout)

	dst := tempDB(t)
	mustRun(t, dst, "activity", "add", "Old", "--duration", "1h")

	r := runCLI(t, dst, "n\n", "backup", "import", file)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Import cancelled")
	assert.Contains(t, mustRun(t, dst, "activity", "list"), "Old")

	r = runCLI(t, dst, "y\n", "backup", "import", file)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Imported 5 categories, 1 tags, 1 activities")

	out = mustRun(t, dst, "activity", "list")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "Work")
	assert.NotContains(t, out, "Old")
}

func TestBackupImport_Invalid(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "activity", "add", "Keep", "--duration", "1h")

	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"activities": []}`), 0o600))

	r := runCLI(t, db, "", "backup", "import", "--yes", file)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "import failed")
	assert.Contains(t, r.stderr, "Nothing was changed")
	assert.Contains(t, mustRun(t, db, "activity", "list"), "Keep")
}

func TestExportCSV(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "seed")
	mustRun(t, db, "activity", "add", "Write, edit", "--start", "2024-06-28T09:00:00Z", "--end", "2024-06-28T10:00:00Z", "--category", "Study")

	out := mustRun(t, db, "export", "csv")
	assert.Equal(t,
		"ID,Description,Start Time,End Time,Duration,Category,Tags\n"+
			"1,\"Write, edit\",2024-06-28T09:00:00.000Z,2024-06-28T10:00:00.000Z,01:00:00,Study,\n",
		out)

	file := filepath.Join(t.TempDir(), "out.csv")
	out = mustRun(t, db, "export", "csv", file)
	assert.Contains(t, out, "Exported 1 activities")
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "ID,Description"))
}

func TestReport(t *testing.T) {
	db := tempDB(t)
	mustRun(t, db, "category", "seed")
	mustRun(t, db, "activity", "add", "Deep work", "--start", "2024-06-28 09:00", "--end", "2024-06-28 10:00",
		"--category", "Work", "--tags", "focus")
	mustRun(t, db, "activity", "add", "Reading", "--start", "2024-06-27 20:00", "--end", "2024-06-27 20:30",
		"--category", "Study")

	out := mustRun(t, db, "report", "--days", "3")
	assert.Contains(t, out, "Total tracked:   1h 30m")
	assert.Contains(t, out, "Activities:      2")
	assert.Contains(t, out, "Days tracked:    2")
	assert.Contains(t, out, "Current: 2 day(s), longest: 2 day(s)")
	assert.Contains(t, out, "2024-06-26  0m")
	assert.Contains(t, out, "2024-06-28  1h 0m")
	assert.Contains(t, out, "focus")
	assert.Less(t, strings.Index(out, "Work"), strings.Index(out, "Study"))

	r := runCLI(t, db, "", "report", "--days", "0")
	assert.Equal(t, 1, r.code)
}

func TestRun_BadConfig(t *testing.T) {
	t.Setenv(config.EnvBusyTimeout, "soon")
	r := runCLI(t, tempDB(t), "", "tag", "list")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "✗")
}

func TestCalendar(t *testing.T) {
	marks := make([]report.DayMark, 14)
	marks[0].HasActivity = true
	marks[13].HasActivity = true
	assert.Equal(t, "■······ ······■", calendar(marks))
}
