package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/orderdesk/internal/observability/metrics"
)

// Factory builds the App for a console session id.
type Factory func(id string) *App

// Registry holds the in-memory console sessions by id.
type Registry struct {
	newApp Factory
	logger *slog.Logger

	mu   sync.Mutex
	apps map[string]*App
}

func NewRegistry(newApp Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{newApp: newApp, logger: logger, apps: make(map[string]*App)}
}

// Get returns the session for id, if held.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	return a, ok
}

// Acquire returns the session for id, creating it when missing. Ids that are
// not UUIDs are replaced by a fresh one. A recreated id finds its persisted
// token again, so sessions survive a restart.
func (r *Registry) Acquire(id string) (*App, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.apps[id]; ok {
		return a, false
	}
	a := r.newApp(id)
	r.apps[id] = a
	metrics.SetActiveSessions(len(r.apps))
	return a, true
}

// Remove forgets the session for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.apps, id)
	metrics.SetActiveSessions(len(r.apps))
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Sweep drops sessions idle for longer than idle and returns their ids.
// Their persisted tokens are kept.
func (r *Registry) Sweep(idle time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, a := range r.apps {
		if now.Sub(a.LastSeen()) > idle {
			delete(r.apps, id)
			removed = append(removed, id)
		}
	}
	metrics.SetActiveSessions(len(r.apps))
	return removed
}
