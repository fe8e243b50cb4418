// Package checklist holds the static cleaning-route registry: the ordered
// tasks, their score weights, and the pure functions that project mutable
// per-task records onto an active task and an aggregate score.
package checklist

import (
	"errors"
	"fmt"
	"sort"
)

var ErrEmptyRegistry = errors.New("checklist: registry has no tasks")

// Pin is a marker position on the room map, in percent of the map area.
type Pin struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Task is one cleaning step. Defined once at startup, never mutated.
type Task struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Order  int    `json:"order"`
	Weight int    `json:"weight"`
	Pin    Pin    `json:"pin"`
	Advice string `json:"advice"`
}

// Record is the caller-supplied view of a task's mutable state. The session
// package owns the full record; the registry only needs to know whether a
// task is done and what it scored.
type Record struct {
	Done  bool
	Score int
}

// Registry is the validated, order-sorted task table.
type Registry struct {
	tasks       []Task
	byID        map[string]int
	totalWeight int
}

// NewRegistry validates the task table: at least one task, unique ids,
// positive weights, and orders forming exactly 1..N with no gaps.
func NewRegistry(tasks []Task) (*Registry, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyRegistry
	}

	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	byID := make(map[string]int, len(sorted))
	total := 0
	for i, t := range sorted {
		if t.ID == "" {
			return nil, fmt.Errorf("checklist: task at order %d has empty id", t.Order)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("checklist: duplicate task id %q", t.ID)
		}
		if t.Weight <= 0 {
			return nil, fmt.Errorf("checklist: task %q has non-positive weight %d", t.ID, t.Weight)
		}
		if t.Order != i+1 {
			return nil, fmt.Errorf("checklist: task orders must be dense 1..%d, got %d for %q", len(sorted), t.Order, t.ID)
		}
		byID[t.ID] = i
		total += t.Weight
	}

	return &Registry{tasks: sorted, byID: byID, totalWeight: total}, nil
}

// Tasks returns the tasks in route order. The slice is shared; do not mutate.
func (r *Registry) Tasks() []Task {
	return r.tasks
}

func (r *Registry) Len() int {
	return len(r.tasks)
}

func (r *Registry) TotalWeight() int {
	return r.totalWeight
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (Task, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Task{}, false
	}
	return r.tasks[i], true
}

// ActiveTask returns the first task in route order whose record is not done,
// or nil when every task is done. It depends on mutable state and must be
// recomputed before every render rather than cached.
func (r *Registry) ActiveTask(records map[string]Record) *Task {
	for i := range r.tasks {
		if !records[r.tasks[i].ID].Done {
			return &r.tasks[i]
		}
	}
	return nil
}

// TotalScore aggregates per-task scores into a 0-100 percentage:
// round(sum(score*weight) / sum(weight)), with halves rounding up.
// Missing records count as zero.
func (r *Registry) TotalScore(records map[string]Record) int {
	if r.totalWeight == 0 {
		return 0
	}
	sum := 0
	for _, t := range r.tasks {
		sum += records[t.ID].Score * t.Weight
	}
	// integer round-half-up; sum and weights are non-negative
	return (2*sum + r.totalWeight) / (2 * r.totalWeight)
}
