package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeSessions struct {
	mu    sync.Mutex
	calls int
	idle  time.Duration
}

func (f *fakeSessions) Sweep(idle time.Duration, _ time.Time) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.idle = idle
	return []string{"a"}
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePruner struct{ calls int }

func (f *fakePruner) Prune() int {
	f.calls++
	return 2
}

func TestSessionSweeper_Sweep(t *testing.T) {
	sessions := &fakeSessions{}
	pruner := &fakePruner{}
	w := NewSessionSweeper(sessions, 30*time.Minute, time.Minute, nil, pruner)

	w.sweep()

	if sessions.calls != 1 || sessions.idle != 30*time.Minute {
		t.Errorf("expected one sweep with 30m idle, got %d with %s", sessions.calls, sessions.idle)
	}
	if pruner.calls != 1 {
		t.Errorf("expected one prune, got %d", pruner.calls)
	}
}

func TestSessionSweeper_StartStopsOnCancel(t *testing.T) {
	sessions := &fakeSessions{}
	w := NewSessionSweeper(sessions, time.Minute, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sessions.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
