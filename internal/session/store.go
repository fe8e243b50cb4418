package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cleannav/internal/checklist"
)

var ErrUnknownTask = errors.New("session: unknown task id")

type fileState struct {
	Rooms map[string]Session `json:"rooms"`
}

// FileStore persists sessions as one JSON blob on disk, keyed by room id.
// A malformed blob fails closed: it is treated as absent and the next Get
// starts a fresh session rather than surfacing a parse error.
type FileStore struct {
	mu   sync.Mutex
	path string
	reg  *checklist.Registry
	s    fileState

	// Now is the clock used for fresh-session start times. Tests override it.
	Now func() time.Time
}

func NewFileStore(dataDir string, reg *checklist.Registry) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	st := &FileStore{
		path: filepath.Join(dataDir, "session.json"),
		reg:  reg,
		s:    fileState{Rooms: map[string]Session{}},
		Now:  time.Now,
	}
	st.load()
	return st, nil
}

func (st *FileStore) load() {
	b, err := os.ReadFile(st.path)
	if err != nil {
		st.s = fileState{Rooms: map[string]Session{}}
		return
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		// corrupt blob: start over instead of propagating
		st.s = fileState{Rooms: map[string]Session{}}
		return
	}
	if loaded.Rooms == nil {
		loaded.Rooms = map[string]Session{}
	}
	st.s = loaded
}

func (st *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(st.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, b, 0o644)
}

// normalizeLocked enforces the one-record-per-task invariant: missing
// records are initialized pending/0, records for ids no longer in the
// registry are dropped.
func (st *FileStore) normalizeLocked(s *Session) {
	if s.Tasks == nil {
		s.Tasks = map[string]TaskRecord{}
	}
	for id := range s.Tasks {
		if _, ok := st.reg.Get(id); !ok {
			delete(s.Tasks, id)
		}
	}
	for _, t := range st.reg.Tasks() {
		if _, ok := s.Tasks[t.ID]; !ok {
			s.Tasks[t.ID] = TaskRecord{Status: StatusPending}
		}
	}
}

func (st *FileStore) freshLocked() Session {
	s := Session{
		StartedAt: st.Now(),
		Tasks:     map[string]TaskRecord{},
	}
	st.normalizeLocked(&s)
	return s
}

// Get rehydrates the room's session, initializing and persisting a fresh one
// when none is stored.
func (st *FileStore) Get(roomID string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.s.Rooms[roomID]
	if !ok {
		s = st.freshLocked()
		st.s.Rooms[roomID] = s
		if err := st.saveLocked(); err != nil {
			return Session{}, err
		}
		return cloneSession(s), nil
	}
	st.normalizeLocked(&s)
	st.s.Rooms[roomID] = s
	return cloneSession(s), nil
}

// Ping verifies the backing directory is still reachable. It never touches
// session state, so probes can call it without starting a run.
func (st *FileStore) Ping() error {
	_, err := os.Stat(filepath.Dir(st.path))
	return err
}

// Exists reports whether the room has a stored session.
func (st *FileStore) Exists(roomID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.s.Rooms[roomID]
	return ok
}

// Tick advances the elapsed-seconds counter by one and persists. It is a
// no-op for rooms with no open session.
func (st *FileStore) Tick(roomID string) (Session, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.s.Rooms[roomID]
	if !ok {
		return Session{}, false, nil
	}
	s.ElapsedSeconds++
	st.s.Rooms[roomID] = s
	if err := st.saveLocked(); err != nil {
		return Session{}, false, err
	}
	return cloneSession(s), true, nil
}

// Reset drops the room's stored session. The next Get starts fresh.
func (st *FileStore) Reset(roomID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.s.Rooms, roomID)
	return st.saveLocked()
}

// CommitOK marks a task done with the given score and clears its note.
// Status and score change in the same write; there is no partial commit.
func (st *FileStore) CommitOK(roomID, taskID string, score int) (Session, error) {
	return st.commit(roomID, taskID, TaskRecord{Status: StatusOK, Score: score})
}

// CommitFix marks a task as needing a fix with the fixed score and the
// cleaner's note.
func (st *FileStore) CommitFix(roomID, taskID string, score int, note string) (Session, error) {
	return st.commit(roomID, taskID, TaskRecord{Status: StatusFix, Score: score, Note: note})
}

func (st *FileStore) commit(roomID, taskID string, rec TaskRecord) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.reg.Get(taskID); !ok {
		return Session{}, ErrUnknownTask
	}

	s, ok := st.s.Rooms[roomID]
	if !ok {
		s = st.freshLocked()
	}
	st.normalizeLocked(&s)
	s.Tasks[taskID] = rec
	st.s.Rooms[roomID] = s
	if err := st.saveLocked(); err != nil {
		return Session{}, err
	}
	return cloneSession(s), nil
}
