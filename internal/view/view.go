// Package view projects the session onto the UI: HUD, map pins and route
// legs, active-task card, task list, finish gate. Render is pure; the
// embedded frontend is a thin adapter over its output.
package view

import (
	"fmt"

	"cleannav/internal/checklist"
	"cleannav/internal/session"
)

type PinState string

const (
	PinPending PinState = "pending"
	PinOK      PinState = "ok"
	PinFix     PinState = "fix"
	PinActive  PinState = "active" // the resolver's pick, still pending
)

type LegState string

const (
	LegDefault   LegState = "default"
	LegCompleted LegState = "completed"
	LegNext      LegState = "next"
)

type HUD struct {
	TotalScore     int    `json:"totalScore"`
	Alert          bool   `json:"alert"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Clock          string `json:"clock"`
}

type Pin struct {
	TaskID string   `json:"taskId"`
	Order  int      `json:"order"`
	Label  string   `json:"label"`
	Left   float64  `json:"left"`
	Top    float64  `json:"top"`
	State  PinState `json:"state"`
}

type Leg struct {
	FromID string   `json:"fromId"`
	ToID   string   `json:"toId"`
	X1     float64  `json:"x1"`
	Y1     float64  `json:"y1"`
	X2     float64  `json:"x2"`
	Y2     float64  `json:"y2"`
	State  LegState `json:"state"`
}

type ActiveCard struct {
	TaskID string `json:"taskId"`
	Order  int    `json:"order"`
	Label  string `json:"label"`
	Advice string `json:"advice"`
}

type ListRow struct {
	TaskID string         `json:"taskId"`
	Label  string         `json:"label"`
	Status session.Status `json:"status"`
	Score  int            `json:"score"`
	Note   string         `json:"note,omitempty"`
}

type View struct {
	HUD           HUD         `json:"hud"`
	NavText       string      `json:"navText"`
	Pins          []Pin       `json:"pins"`
	Legs          []Leg       `json:"legs"`
	Active        *ActiveCard `json:"active"`
	List          []ListRow   `json:"list"`
	FinishEnabled bool        `json:"finishEnabled"`
}

// Render builds the full view model for one session snapshot.
func Render(reg *checklist.Registry, s session.Session, alertBelow int) View {
	records := s.Records()
	active := reg.ActiveTask(records)
	total := reg.TotalScore(records)

	v := View{
		HUD: HUD{
			TotalScore:     total,
			Alert:          total < alertBelow,
			ElapsedSeconds: s.ElapsedSeconds,
			Clock:          clock(s.ElapsedSeconds),
		},
		FinishEnabled: active == nil,
	}

	if active == nil {
		v.NavText = "All tasks complete. Submit your report."
	} else {
		v.NavText = "NEXT: head to " + active.Label
		v.Active = &ActiveCard{
			TaskID: active.ID,
			Order:  active.Order,
			Label:  active.Label,
			Advice: active.Advice,
		}
	}

	tasks := reg.Tasks()
	v.Pins = make([]Pin, 0, len(tasks))
	v.List = make([]ListRow, 0, len(tasks))
	for _, t := range tasks {
		rec := s.Tasks[t.ID]
		v.Pins = append(v.Pins, Pin{
			TaskID: t.ID,
			Order:  t.Order,
			Label:  t.Label,
			Left:   t.Pin.Left,
			Top:    t.Pin.Top,
			State:  pinState(t, rec, active),
		})
		v.List = append(v.List, ListRow{
			TaskID: t.ID,
			Label:  t.Label,
			Status: status(rec),
			Score:  rec.Score,
			Note:   rec.Note,
		})
	}

	v.Legs = make([]Leg, 0, max(len(tasks)-1, 0))
	for i := 0; i+1 < len(tasks); i++ {
		curr, next := tasks[i], tasks[i+1]
		v.Legs = append(v.Legs, Leg{
			FromID: curr.ID,
			ToID:   next.ID,
			X1:     curr.Pin.Left,
			Y1:     curr.Pin.Top,
			X2:     next.Pin.Left,
			Y2:     next.Pin.Top,
			State:  legState(s.Tasks[curr.ID], next, s.Tasks[next.ID], active),
		})
	}

	return v
}

func status(rec session.TaskRecord) session.Status {
	if rec.Status == "" {
		return session.StatusPending
	}
	return rec.Status
}

func pinState(t checklist.Task, rec session.TaskRecord, active *checklist.Task) PinState {
	switch rec.Status {
	case session.StatusOK:
		return PinOK
	case session.StatusFix:
		return PinFix
	}
	if active != nil && active.ID == t.ID {
		return PinActive
	}
	return PinPending
}

// legState encodes the route connector: completed once the predecessor is
// done, highlighted as the next leg when it leads into the active pending
// task. Tying the highlight to the active task keeps the invariant that at
// most one leg is highlighted, even when tasks were checked out of order.
func legState(curr session.TaskRecord, next checklist.Task, nextRec session.TaskRecord, active *checklist.Task) LegState {
	if curr.Status != session.StatusOK {
		return LegDefault
	}
	if status(nextRec) == session.StatusPending && active != nil && active.ID == next.ID {
		return LegNext
	}
	return LegCompleted
}

func clock(elapsed int) string {
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60)
}
