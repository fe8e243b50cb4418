package report

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannav/internal/checklist"
	"cleannav/internal/session"
)

func testRegistry(t *testing.T) *checklist.Registry {
	t.Helper()
	reg, err := checklist.NewRegistry([]checklist.Task{
		{ID: "trash", Label: "Trash", Order: 1, Weight: 10},
		{ID: "bed", Label: "Bed", Order: 2, Weight: 30},
	})
	require.NoError(t, err)
	return reg
}

func TestNewID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewID()
		assert.Regexp(t, re, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestBuild(t *testing.T) {
	reg := testRegistry(t)
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := session.Session{
		StartedAt:      started,
		ElapsedSeconds: 312,
		Tasks: map[string]session.TaskRecord{
			"trash": {Status: session.StatusOK, Score: 100},
			"bed":   {Status: session.StatusOK, Score: 80},
		},
	}

	rep := Build(reg, s, "101", "USER_01", started.Add(312*time.Second))

	assert.Equal(t, "101", rep.RoomID)
	assert.Equal(t, "USER_01", rep.CleanerID)
	assert.Equal(t, "2026-03-01T09:00:00Z", rep.StartedAt)
	assert.Equal(t, "2026-03-01T09:05:12Z", rep.FinishedAt)
	assert.Equal(t, 312, rep.DurationSeconds)
	// (100*10 + 80*30) / 40 = 85
	assert.Equal(t, 85, rep.TotalScore)
	assert.Len(t, rep.Tasks, 2)
}

func TestEncodeText(t *testing.T) {
	reg := testRegistry(t)
	rep := Report{
		RoomID:          "101",
		CleanerID:       "USER_01",
		StartedAt:       "2026-03-01T09:00:00Z",
		FinishedAt:      "2026-03-01T09:05:12Z",
		DurationSeconds: 312,
		TotalScore:      85,
		Tasks: map[string]session.TaskRecord{
			"trash": {Status: session.StatusOK, Score: 100},
			"bed":   {Status: session.StatusFix, Score: 40, Note: "stain on duvet"},
		},
	}

	text := EncodeText(reg, rep, "abcdef012345")

	want := "CLEANING_REPORT_V1\n" +
		"report_id: abcdef012345\n" +
		"roomId: 101\n" +
		"cleanerId: USER_01\n" +
		"startedAt: 2026-03-01T09:00:00Z\n" +
		"finishedAt: 2026-03-01T09:05:12Z\n" +
		"durationSeconds: 312\n" +
		"totalScore: 85\n" +
		"\ntasks:\n" +
		"- id: trash\n" +
		"  status: ok\n" +
		"  score: 100\n" +
		"  note: \n" +
		"- id: bed\n" +
		"  status: fix\n" +
		"  score: 40\n" +
		"  note: stain on duvet\n"
	assert.Equal(t, want, text)
}

func TestStorePathRejectsBadNames(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{
		"",
		"../../etc/passwd",
		"cleaning_report_..txt",
		"cleaning_report_abcdef012345.txt.bak",
		"notes.txt",
		"cleaning_report_ABCDEF012345.txt",
	} {
		_, err := st.Path(name)
		assert.ErrorIs(t, err, ErrBadFilename, "name %q", name)
	}

	_, err = st.Path("cleaning_report_abcdef012345.txt")
	assert.NoError(t, err)
}
