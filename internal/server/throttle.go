package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Throttle coalesces bursts of internal updates for a match into a single
// public broadcast per debounce window. Trailing edge: every trigger within
// the window cancels and re-arms the timer, so only the state present after
// the last trigger is ever sent. Intermediate states are dropped on purpose.
type Throttle struct {
	window time.Duration
	fire   func(matchID string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewThrottle(window time.Duration, fire func(matchID string)) *Throttle {
	return &Throttle{
		window: window,
		fire:   fire,
		timers: make(map[string]*time.Timer),
	}
}

// Trigger schedules (or reschedules) the public broadcast for a match.
func (t *Throttle) Trigger(matchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tm, ok := t.timers[matchID]; ok {
		tm.Stop()
	}
	t.timers[matchID] = time.AfterFunc(t.window, func() {
		t.mu.Lock()
		delete(t.timers, matchID)
		t.mu.Unlock()
		t.fire(matchID)
	})
}

// Stop cancels all pending broadcasts. Used on shutdown.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tm := range t.timers {
		tm.Stop()
		delete(t.timers, id)
	}
}

// PublicRefresher builds the throttle's fire callback: re-fetch the
// authoritative aggregate at fire time (so a missed internal event
// self-heals on the next tick), sanitize it, and hand it to the hub.
func PublicRefresher(logger *slog.Logger, store Store, hub *Hub) func(matchID string) {
	return func(matchID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		agg, err := store.MatchAggregate(ctx, matchID)
		if err != nil {
			logger.Warn("public broadcast skipped", "match_id", matchID, "error", err)
			return
		}
		hub.NotifyPublic(agg.Tournament.ID, sanitize(agg))
	}
}
