// Package session owns the mutable state of one cleaning run: the per-task
// records, the elapsed-time counter, and their persistence as a single JSON
// blob per room.
package session

import (
	"time"

	"cleannav/internal/checklist"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusOK      Status = "ok"
	StatusFix     Status = "fix"
)

// TaskRecord is the mutable status/score/note for one checklist task.
// Terminal transitions (ok, fix) always set status and score together.
type TaskRecord struct {
	Status Status `json:"status"`
	Score  int    `json:"score"`
	Note   string `json:"note,omitempty"`
}

func (r TaskRecord) Done() bool {
	return r.Status == StatusOK
}

// Session is the full state of one cleaning run.
type Session struct {
	StartedAt      time.Time             `json:"startedAt"`
	ElapsedSeconds int                   `json:"elapsedSeconds"`
	Tasks          map[string]TaskRecord `json:"tasks"`
}

// Records projects the session onto the registry's view of per-task state.
func (s Session) Records() map[string]checklist.Record {
	out := make(map[string]checklist.Record, len(s.Tasks))
	for id, rec := range s.Tasks {
		out[id] = checklist.Record{Done: rec.Done(), Score: rec.Score}
	}
	return out
}

// AllDone reports whether every task in the registry is status ok. A fix
// record counts as not done; the finish gate is strict.
func (s Session) AllDone(reg *checklist.Registry) bool {
	for _, t := range reg.Tasks() {
		if !s.Tasks[t.ID].Done() {
			return false
		}
	}
	return true
}

func cloneSession(s Session) Session {
	tasks := make(map[string]TaskRecord, len(s.Tasks))
	for id, rec := range s.Tasks {
		tasks[id] = rec
	}
	s.Tasks = tasks
	return s
}
