package engine

import (
	"time"

	"github.com/google/uuid"
)

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDs replaces the id generator used for matches, actions, shots and kickouts.
func WithIDs(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.newID = next
		}
	}
}

// WithSpaceGuard enables a capacity check before every write.
func WithSpaceGuard(g SpaceGuard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithHistory sets where finished matches are filed at full time.
func WithHistory(h HistorySink) Option {
	return func(e *Engine) { e.history = h }
}

func defaultIDs() string { return uuid.NewString() }

func defaultClock() time.Time { return time.Now() }
