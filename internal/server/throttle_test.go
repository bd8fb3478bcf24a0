package server

import (
	"sync"
	"testing"
	"time"
)

type fireRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (f *fireRecorder) fire(matchID string) {
	f.mu.Lock()
	f.fired = append(f.fired, matchID)
	f.mu.Unlock()
}

func (f *fireRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fired)
}

func TestThrottleCoalescesBurst(t *testing.T) {
	rec := &fireRecorder{}
	th := NewThrottle(20*time.Millisecond, rec.fire)
	defer th.Stop()

	for i := 0; i < 10; i++ {
		th.Trigger("m1")
	}

	time.Sleep(80 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}

	// A later trigger opens a fresh window.
	th.Trigger("m1")
	time.Sleep(80 * time.Millisecond)
	if got := rec.count(); got != 2 {
		t.Fatalf("fired %d times, want 2", got)
	}
}

func TestThrottleIsPerMatch(t *testing.T) {
	rec := &fireRecorder{}
	th := NewThrottle(20*time.Millisecond, rec.fire)
	defer th.Stop()

	th.Trigger("m1")
	th.Trigger("m2")
	th.Trigger("m1")

	time.Sleep(80 * time.Millisecond)
	if got := rec.count(); got != 2 {
		t.Fatalf("fired %d times, want 2 (one per match)", got)
	}
}

func TestThrottleStopCancelsPending(t *testing.T) {
	rec := &fireRecorder{}
	th := NewThrottle(50*time.Millisecond, rec.fire)

	th.Trigger("m1")
	th.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Fatalf("fired %d times after Stop, want 0", got)
	}
}
