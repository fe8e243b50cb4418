// Package report assembles the end-of-shift cleaning report, stores it as a
// text artifact, and forwards it to the auditor service when one is
// configured.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cleannav/internal/checklist"
	"cleannav/internal/session"
)

// Report is the write-once snapshot sent to the auditor and offered for
// download. Timestamps are ISO-8601 in UTC.
type Report struct {
	RoomID          string                        `json:"roomId"`
	CleanerID       string                        `json:"cleanerId"`
	StartedAt       string                        `json:"startedAt"`
	FinishedAt      string                        `json:"finishedAt"`
	DurationSeconds int                           `json:"durationSeconds"`
	TotalScore      int                           `json:"totalScore"`
	Tasks           map[string]session.TaskRecord `json:"tasks"`
}

func Build(reg *checklist.Registry, s session.Session, roomID, cleanerID string, now time.Time) Report {
	tasks := make(map[string]session.TaskRecord, len(s.Tasks))
	for id, rec := range s.Tasks {
		tasks[id] = rec
	}
	return Report{
		RoomID:          roomID,
		CleanerID:       cleanerID,
		StartedAt:       s.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:      now.UTC().Format(time.RFC3339),
		DurationSeconds: s.ElapsedSeconds,
		TotalScore:      reg.TotalScore(s.Records()),
		Tasks:           tasks,
	}
}

// NewID returns a short report id, 12 hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func Filename(reportID string) string {
	return "cleaning_report_" + reportID + ".txt"
}

// EncodeText renders the report in the line format the auditor ingests.
// Tasks appear in route order.
func EncodeText(reg *checklist.Registry, rep Report, reportID string) string {
	var b strings.Builder
	b.WriteString("CLEANING_REPORT_V1\n")
	fmt.Fprintf(&b, "report_id: %s\n", reportID)
	fmt.Fprintf(&b, "roomId: %s\n", rep.RoomID)
	fmt.Fprintf(&b, "cleanerId: %s\n", rep.CleanerID)
	fmt.Fprintf(&b, "startedAt: %s\n", rep.StartedAt)
	fmt.Fprintf(&b, "finishedAt: %s\n", rep.FinishedAt)
	fmt.Fprintf(&b, "durationSeconds: %d\n", rep.DurationSeconds)
	fmt.Fprintf(&b, "totalScore: %d\n", rep.TotalScore)
	b.WriteString("\ntasks:\n")
	for _, t := range reg.Tasks() {
		rec := rep.Tasks[t.ID]
		fmt.Fprintf(&b, "- id: %s\n", t.ID)
		fmt.Fprintf(&b, "  status: %s\n", rec.Status)
		fmt.Fprintf(&b, "  score: %d\n", rec.Score)
		fmt.Fprintf(&b, "  note: %s\n", rec.Note)
	}
	return b.String()
}
