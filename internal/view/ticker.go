package view

import (
	"context"
	"time"

	"github.com/luoxi-dev/mahjong-client/internal/protocol"
)

// DefaultTickInterval makes the reaction countdown visibly decrease between
// snapshot pushes. This is a display cadence, distinct from the session
// heartbeat.
const DefaultTickInterval = 500 * time.Millisecond

// Ticker re-projects the latest snapshot on a fixed cadence.
type Ticker struct {
	interval time.Duration
	source   func() *protocol.Snapshot
	emit     func(View)
}

// NewTicker builds a Ticker reading snapshots from source and handing each
// projection to emit. A non-positive interval falls back to
// DefaultTickInterval.
func NewTicker(interval time.Duration, source func() *protocol.Snapshot, emit func(View)) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{interval: interval, source: source, emit: emit}
}

// Run projects until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.emit(Project(t.source(), now))
		}
	}
}
