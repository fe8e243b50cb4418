package session

import (
	"context"
	"log"
	"time"
)

// Ticker drives the one-second session clock: while a session is open for
// the room, each tick bumps elapsedSeconds and persists.
type Ticker struct {
	store    *FileStore
	roomID   string
	interval time.Duration
	logger   *log.Logger
}

func NewTicker(store *FileStore, roomID string, interval time.Duration, logger *log.Logger) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Ticker{store: store, roomID: roomID, interval: interval, logger: logger}
}

func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if _, _, err := t.store.Tick(t.roomID); err != nil {
				t.logger.Printf("session tick: %v", err)
			}
		}
	}
}
