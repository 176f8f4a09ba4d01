package app

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/repository"
)

func newRegistry() *Registry {
	base := backend.NewClient("http://backend.invalid", nil, nil, nil)
	tokens := repository.NewMemoryTokens()
	return NewRegistry(func(id string) *App {
		return New(id, base, repository.NewMemoryTokenStore(tokens, id, time.Hour), nil)
	}, nil)
}

func TestRegistry_Acquire(t *testing.T) {
	r := newRegistry()

	a, created := r.Acquire("not-a-uuid")
	if !created {
		t.Fatal("expected a new session")
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Errorf("expected a uuid id, got %q", a.ID())
	}

	again, created := r.Acquire(a.ID())
	if created || again != a {
		t.Error("expected the same session for its id")
	}

	id := uuid.NewString()
	b, created := r.Acquire(id)
	if !created || b.ID() != id {
		t.Errorf("expected unknown uuid recreated as-is, got %q", b.ID())
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", r.Len())
	}
}

func TestRegistry_Sweep(t *testing.T) {
	r := newRegistry()
	idle, _ := r.Acquire("")
	active, _ := r.Acquire("")

	now := time.Now()
	idle.now = func() time.Time { return now.Add(-time.Hour) }
	idle.Touch()
	active.Touch()

	removed := r.Sweep(30*time.Minute, now)
	if len(removed) != 1 || removed[0] != idle.ID() {
		t.Fatalf("expected only the idle session swept, got %v", removed)
	}
	if _, ok := r.Get(active.ID()); !ok {
		t.Error("expected the active session kept")
	}

	r.Remove(active.ID())
	if r.Len() != 0 {
		t.Errorf("expected no sessions, got %d", r.Len())
	}
}
