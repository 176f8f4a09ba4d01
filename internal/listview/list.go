// Package listview holds one fetched collection with the paging, sorting,
// filtering and tentative-update behaviour shared by every dashboard list.
package listview

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/yourorg/orderdesk/internal/observability/metrics"
)

// ErrNotFound is returned by Apply when no held item has the key.
var ErrNotFound = errors.New("item not in list")

// UpdateState tracks a tentative update of one item.
type UpdateState int

const (
	Idle UpdateState = iota
	Pending
	Confirmed
	Failed
)

func (s UpdateState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher loads the whole collection.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// List is a fetched collection. The zero page size shows everything on one
// page.
type List[T any] struct {
	name     string
	fetch    Fetcher[T]
	key      func(T) string
	pageSize int
	logger   *slog.Logger

	mu         sync.Mutex
	items      []T
	filter     func(T) bool
	refreshes  int
	generation int
	states     map[string]UpdateState
}

// New creates an empty list; call Refresh to load it.
func New[T any](name string, fetch Fetcher[T], key func(T) string, pageSize int, logger *slog.Logger) *List[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize < 0 {
		pageSize = 0
	}
	return &List[T]{
		name:     name,
		fetch:    fetch,
		key:      key,
		pageSize: pageSize,
		logger:   logger,
		states:   make(map[string]UpdateState),
	}
}

// Refresh replaces the collection with a fresh fetch. On failure the prior
// collection is kept and the error returned.
func (l *List[T]) Refresh(ctx context.Context) error {
	items, err := l.fetch(ctx)
	if err != nil {
		l.logger.Warn("list refresh failed",
			slog.String("list", l.name),
			slog.String("error", err.Error()),
		)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	l.generation++
	clear(l.states)
	return nil
}

// Bump advances the refresh counter and refetches. Forms call it after a
// successful write.
func (l *List[T]) Bump(ctx context.Context) error {
	l.mu.Lock()
	l.refreshes++
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Refreshes is the number of Bump calls so far.
func (l *List[T]) Refreshes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes
}

// Items returns the held collection in its current order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Find returns the held item with key.
func (l *List[T]) Find(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(key); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Sort reorders the held collection. The order lasts until the next refresh.
func (l *List[T]) Sort(cmp func(a, b T) int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slices.SortStableFunc(l.items, cmp)
}

// Filter sets the view predicate; nil shows everything.
func (l *List[T]) Filter(pred func(T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = pred
}

// Visible returns the filtered view.
func (l *List[T]) Visible() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible()
}

// Page returns the items on page p (1-based) of the filtered view. Pages
// past the end are empty.
func (l *List[T]) Page(p int) []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	view := l.visible()
	if l.pageSize == 0 {
		if p == 1 {
			return view
		}
		return []T{}
	}
	if p < 1 {
		return []T{}
	}
	start := (p - 1) * l.pageSize
	if start >= len(view) {
		return []T{}
	}
	end := min(start+l.pageSize, len(view))
	return view[start:end]
}

// PageCount is ceil(N / pageSize) for the filtered view.
func (l *List[T]) PageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.visible())
	if l.pageSize == 0 {
		if n == 0 {
			return 0
		}
		return 1
	}
	return (n + l.pageSize - 1) / l.pageSize
}

// PageSize is the configured page size.
func (l *List[T]) PageSize() int { return l.pageSize }

// Apply shows mutate on the item with key as Pending, then runs commit. On
// success the item is Confirmed; on failure the prior value is restored and
// the item marked Failed. A refresh during commit wins over the revert.
func (l *List[T]) Apply(ctx context.Context, key string, mutate func(*T), commit func(context.Context) error) error {
	l.mu.Lock()
	i := l.indexOf(key)
	if i < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	prior := l.items[i]
	mutate(&l.items[i])
	l.states[key] = Pending
	gen := l.generation
	l.mu.Unlock()

	err := commit(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		if gen == l.generation {
			if j := l.indexOf(key); j >= 0 {
				l.items[j] = prior
			}
			l.states[key] = Failed
		}
		metrics.ObserveTentativeUpdate(Failed.String())
		l.logger.Info("tentative update reverted",
			slog.String("list", l.name),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return err
	}
	if gen == l.generation {
		l.states[key] = Confirmed
	}
	metrics.ObserveTentativeUpdate(Confirmed.String())
	return nil
}

// StateOf returns the tentative-update state of the item with key.
func (l *List[T]) StateOf(key string) UpdateState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[key]
}

func (l *List[T]) visible() []T {
	if l.filter == nil {
		return slices.Clone(l.items)
	}
	out := make([]T, 0, len(l.items))
	for _, it := range l.items {
		if l.filter(it) {
			out = append(out, it)
		}
	}
	return out
}

func (l *List[T]) indexOf(key string) int {
	for i, it := range l.items {
		if l.key(it) == key {
			return i
		}
	}
	return -1
}
