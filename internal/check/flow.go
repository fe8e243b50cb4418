// Package check drives the per-task photo check dialog: open, classify,
// confirm-fix, close. A monotonic generation token per task guards against
// late classification results committing into a dialog that was closed or
// reopened in the meantime.
package check

import (
	"sync"
)

type generations struct {
	mu   sync.Mutex
	gens map[string]int64
}

func newGenerations() *generations {
	return &generations{gens: map[string]int64{}}
}

// Open starts a new dialog generation for the task and returns its token.
// Any result carrying an older token is discarded.
func (g *generations) Open(taskID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[taskID]++
	return g.gens[taskID]
}

// Close invalidates the current generation without opening a new one.
func (g *generations) Close(taskID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[taskID]++
}

func (g *generations) Valid(taskID string, gen int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen != 0 && g.gens[taskID] == gen
}
