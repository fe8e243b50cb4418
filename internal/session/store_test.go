package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannav/internal/checklist"
)

func testRegistry(t *testing.T) *checklist.Registry {
	t.Helper()
	reg, err := checklist.NewRegistry([]checklist.Task{
		{ID: "trash", Label: "Trash", Order: 1, Weight: 10},
		{ID: "bed", Label: "Bed", Order: 2, Weight: 30},
		{ID: "bath", Label: "Bath", Order: 3, Weight: 20},
	})
	require.NoError(t, err)
	return reg
}

func TestGet_InitializesFreshSession(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	start := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return start }

	s, err := store.Get("101")
	require.NoError(t, err)

	assert.Equal(t, start, s.StartedAt)
	assert.Equal(t, 0, s.ElapsedSeconds)
	require.Len(t, s.Tasks, 3)
	for id, rec := range s.Tasks {
		assert.Equal(t, StatusPending, rec.Status, id)
		assert.Equal(t, 0, rec.Score, id)
	}
}

func TestRoundTrip_SaveThenLoadEquivalent(t *testing.T) {
	dir := t.TempDir()
	reg := testRegistry(t)

	store, err := NewFileStore(dir, reg)
	require.NoError(t, err)
	store.Now = func() time.Time { return time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC) }

	if _, err := store.Get("101"); err != nil {
		t.Fatalf("init session: %v", err)
	}
	if _, err := store.CommitOK("101", "trash", 92); err != nil {
		t.Fatalf("commit ok: %v", err)
	}
	if _, err := store.CommitFix("101", "bed", 40, "restripe sheets"); err != nil {
		t.Fatalf("commit fix: %v", err)
	}
	if _, ticked, err := store.Tick("101"); err != nil || !ticked {
		t.Fatalf("tick: ticked=%v err=%v", ticked, err)
	}
	want, err := store.Get("101")
	require.NoError(t, err)

	// a second store over the same directory sees the same session
	reloaded, err := NewFileStore(dir, reg)
	require.NoError(t, err)
	got, err := reloaded.Get("101")
	require.NoError(t, err)

	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, want.ElapsedSeconds, got.ElapsedSeconds)
	assert.Equal(t, want.Tasks, got.Tasks)
}

func TestLoad_CorruptBlobFailsClosed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0o644))

	store, err := NewFileStore(dir, testRegistry(t))
	require.NoError(t, err)

	s, err := store.Get("101")
	require.NoError(t, err)
	assert.Equal(t, 0, s.ElapsedSeconds)
	for _, rec := range s.Tasks {
		assert.Equal(t, StatusPending, rec.Status)
	}
}

func TestGet_DropsUnknownTasksAndFillsMissing(t *testing.T) {
	dir := t.TempDir()
	blob := `{"rooms":{"101":{"startedAt":"2026-08-28T09:00:00Z","elapsedSeconds":12,
		"tasks":{"trash":{"status":"ok","score":90},"ghost":{"status":"ok","score":100}}}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte(blob), 0o644))

	store, err := NewFileStore(dir, testRegistry(t))
	require.NoError(t, err)

	s, err := store.Get("101")
	require.NoError(t, err)

	assert.Equal(t, 12, s.ElapsedSeconds)
	assert.NotContains(t, s.Tasks, "ghost")
	assert.Equal(t, TaskRecord{Status: StatusOK, Score: 90}, s.Tasks["trash"])
	assert.Equal(t, TaskRecord{Status: StatusPending}, s.Tasks["bed"])
	assert.Equal(t, TaskRecord{Status: StatusPending}, s.Tasks["bath"])
}

func TestCommitOK_SetsStatusAndScoreTogether(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	s, err := store.CommitOK("101", "trash", 85)
	require.NoError(t, err)
	assert.Equal(t, TaskRecord{Status: StatusOK, Score: 85}, s.Tasks["trash"])
}

func TestCommitOK_ClearsPriorNote(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	if _, err := store.CommitFix("101", "trash", 40, "bin still full"); err != nil {
		t.Fatalf("commit fix: %v", err)
	}
	s, err := store.CommitOK("101", "trash", 97)
	require.NoError(t, err)
	assert.Equal(t, TaskRecord{Status: StatusOK, Score: 97}, s.Tasks["trash"])
	assert.Empty(t, s.Tasks["trash"].Note)
}

func TestCommit_UnknownTask(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	_, err = store.CommitOK("101", "minibar", 100)
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestTick_NoopWithoutSession(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	_, ticked, err := store.Tick("101")
	require.NoError(t, err)
	assert.False(t, ticked)

	if _, err := store.Get("101"); err != nil {
		t.Fatalf("init session: %v", err)
	}
	s, ticked, err := store.Tick("101")
	require.NoError(t, err)
	assert.True(t, ticked)
	assert.Equal(t, 1, s.ElapsedSeconds)
}

func TestReset_ReinitializesPendingZeroWithFreshStart(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testRegistry(t))
	require.NoError(t, err)

	first := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return first }
	if _, err := store.Get("101"); err != nil {
		t.Fatalf("init session: %v", err)
	}
	if _, err := store.CommitOK("101", "trash", 90); err != nil {
		t.Fatalf("commit: %v", err)
	}
	for range 30 {
		if _, _, err := store.Tick("101"); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	require.NoError(t, store.Reset("101"))

	later := first.Add(2 * time.Hour)
	store.Now = func() time.Time { return later }
	s, err := store.Get("101")
	require.NoError(t, err)

	assert.True(t, s.StartedAt.Equal(later))
	assert.Equal(t, 0, s.ElapsedSeconds)
	for _, rec := range s.Tasks {
		assert.Equal(t, TaskRecord{Status: StatusPending}, rec)
	}
}

func TestAllDone_FixCountsAsNotDone(t *testing.T) {
	reg := testRegistry(t)
	s := Session{Tasks: map[string]TaskRecord{
		"trash": {Status: StatusOK, Score: 90},
		"bed":   {Status: StatusOK, Score: 80},
		"bath":  {Status: StatusFix, Score: 40, Note: "regrout"},
	}}
	assert.False(t, s.AllDone(reg))

	s.Tasks["bath"] = TaskRecord{Status: StatusOK, Score: 70}
	assert.True(t, s.AllDone(reg))
}
