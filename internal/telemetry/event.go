package telemetry

import "time"

type EventType string

const (
	EventCheckOpened     EventType = "check_opened"
	EventPhotoClassified EventType = "photo_classified"
	EventTaskPassed      EventType = "task_passed"
	EventTaskFlagged     EventType = "task_flagged"
	EventSessionReset    EventType = "session_reset"
	EventReportSubmitted EventType = "report_submitted"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
