package timer

import (
	"time"
)

// TickSource delivers periodic tick events to the engine. The engine never
// talks to the wall clock for its countdown; tests drive it with synthetic
// ticks instead of real delays.
type TickSource interface {
	Start(interval time.Duration) <-chan time.Time
	Stop()
}

// WallTicker is the production tick source backed by time.Ticker.
type WallTicker struct {
	ticker *time.Ticker
}

// NewWallTicker creates an unstarted wall-clock tick source.
func NewWallTicker() *WallTicker {
	return &WallTicker{}
}

// Start begins ticking at the given interval.
func (w *WallTicker) Start(interval time.Duration) <-chan time.Time {
	w.ticker = time.NewTicker(interval)
	return w.ticker.C
}

// Stop halts the ticker.
func (w *WallTicker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
}
