package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sessions is the set of console sessions a sweeper expires.
type Sessions interface {
	Sweep(idle time.Duration, now time.Time) []string
}

// Pruner drops expired entries from an in-memory store.
type Pruner interface {
	Prune() int
}

// SessionSweeper periodically drops idle console sessions and prunes
// expired in-memory tokens. Dropped sessions keep their persisted token and
// are rebuilt on their next request.
type SessionSweeper struct {
	sessions Sessions
	pruners  []Pruner
	idle     time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionSweeper creates a sweeper; pruners may be empty.
func NewSessionSweeper(sessions Sessions, idle, interval time.Duration, logger *slog.Logger, pruners ...Pruner) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{
		sessions: sessions,
		pruners:  pruners,
		idle:     idle,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs sweeps until ctx is cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session sweeper started",
		slog.Duration("interval", w.interval),
		slog.Duration("idle", w.idle),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SessionSweeper) sweep() {
	removed := w.sessions.Sweep(w.idle, w.now())
	pruned := 0
	for _, p := range w.pruners {
		pruned += p.Prune()
	}
	if len(removed) == 0 && pruned == 0 {
		return
	}
	w.logger.Info("swept idle sessions",
		slog.Int("sessions", len(removed)),
		slog.Int("tokens_pruned", pruned),
	)
}
