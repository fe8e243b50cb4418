package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period           string            `json:"period"`
	EventCounts      map[EventType]int `json:"event_counts"`
	CheckAttempts    int               `json:"check_attempts"`
	TasksPassed      int               `json:"tasks_passed"`
	TasksFlagged     int               `json:"tasks_flagged"`
	AcceptanceRate   float64           `json:"acceptance_rate"`
	SessionResets    int               `json:"session_resets"`
	ReportsSubmitted int               `json:"reports_submitted"`
	FlaggedByTask    map[string]int    `json:"flagged_by_task"`
	PassedByLabel    map[string]int    `json:"passed_by_label"`
}

// CalculateStats summarizes check-flow events since the given time.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:        since.Format("2006-01-02"),
		EventCounts:   make(map[EventType]int),
		FlaggedByTask: make(map[string]int),
		PassedByLabel: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventPhotoClassified:
			stats.CheckAttempts++
		case EventTaskPassed:
			stats.TasksPassed++
			if label, ok := metadata["label"].(string); ok {
				stats.PassedByLabel[label]++
			}
		case EventTaskFlagged:
			stats.TasksFlagged++
			if taskID, ok := metadata["task_id"].(string); ok {
				stats.FlaggedByTask[taskID]++
			}
		case EventSessionReset:
			stats.SessionResets++
		case EventReportSubmitted:
			stats.ReportsSubmitted++
		}
	}

	if stats.CheckAttempts > 0 {
		stats.AcceptanceRate = float64(stats.TasksPassed) / float64(stats.CheckAttempts)
	}
	return stats, nil
}
