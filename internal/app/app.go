// Package app wires one console session: its store, router state, backend
// client and dashboard page.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/dashboard"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/form"
	"github.com/yourorg/orderdesk/internal/observability/metrics"
	"github.com/yourorg/orderdesk/internal/router"
	"github.com/yourorg/orderdesk/internal/session"
)

var (
	// ErrBadCredentials is a login the backend refused.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrUnknownRole is a login whose role has no dashboard.
	ErrUnknownRole = errors.New("account role has no dashboard")
)

// App is one console session.
type App struct {
	id      string
	store   *session.Store
	machine *router.Machine
	tokens  domain.TokenStore
	client  *backend.Client
	boot    *session.Bootstrapper
	logger  *slog.Logger
	now     func() time.Time

	started atomic.Bool

	mu       sync.Mutex
	page     dashboard.Page
	lastSeen time.Time
}

// New creates a session in Loading. base is shared by every session and
// rebound to this session's token.
func New(id string, base *backend.Client, tokens domain.TokenStore, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("session_id", id))
	store := session.NewStore()
	client := base.WithTokens(store)
	a := &App{
		id:      id,
		store:   store,
		machine: router.NewMachine(),
		tokens:  tokens,
		client:  client,
		boot:    session.NewBootstrapper(tokens, client, store, logger),
		logger:  logger,
		now:     time.Now,
	}
	a.lastSeen = a.now()
	return a
}

func (a *App) ID() string { return a.id }

func (a *App) Session() session.Session { return a.store.Snapshot() }

func (a *App) Client() *backend.Client { return a.client }

// Start runs the bootstrap on the first call only. Callers arriving while it
// runs see Loading.
func (a *App) Start(ctx context.Context) {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	a.machine.Begin()
	outcome := a.boot.Run(ctx)
	st := a.machine.Complete(a.store.Snapshot())
	if st.Phase == router.Authenticated {
		a.buildPage(st.Role)
	}
	a.logger.Debug("bootstrap finished", slog.String("outcome", outcome.String()))
}

// State is the router state, with an expired token treated as logged out.
func (a *App) State() router.State {
	st := a.machine.State()
	if st.Phase != router.Authenticated {
		return st
	}
	s := a.store.Snapshot()
	if !s.Expired(a.now()) {
		return st
	}
	a.logger.Info("session token expired")
	a.dropPage()
	a.machine.Logout()
	return a.machine.State()
}

// Resolve decides what path shows right now.
func (a *App) Resolve(path string) router.Decision {
	return router.Resolve(a.State(), path)
}

// Login validates the inputs, exchanges them for a token, persists it and
// builds the role's page. It returns the role's home path.
func (a *App) Login(ctx context.Context, email, password string) (string, error) {
	if err := form.ValidateLogin(form.LoginFields{Email: email, Password: password}); err != nil {
		metrics.ObserveLogin("invalid")
		return "", err
	}

	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		if backend.IsStatus(err) {
			metrics.ObserveLogin("rejected")
			return "", ErrBadCredentials
		}
		metrics.ObserveLogin("error")
		return "", err
	}

	role, ok := domain.ParseRole(res.Role)
	if !ok {
		metrics.ObserveLogin("unknown_role")
		a.logger.Warn("login returned unknown role", slog.String("role", res.Role))
		return "", ErrUnknownRole
	}

	if err := a.tokens.Save(ctx, res.Token); err != nil {
		a.logger.Warn("failed to persist token", slog.String("error", err.Error()))
	}
	a.store.Establish(res.Token, res.Email, role)
	a.started.Store(true)
	st := a.machine.Complete(a.store.Snapshot())
	a.buildPage(st.Role)

	metrics.ObserveLogin("success")
	a.logger.Info("user logged in",
		slog.String("email", res.Email),
		slog.String("role", role.String()),
	)
	return router.HomePath(role), nil
}

// Logout clears the session, removes the persisted token and discards the
// page.
func (a *App) Logout(ctx context.Context) error {
	email := a.store.Snapshot().Email
	err := session.Logout(ctx, a.store, a.tokens)
	a.machine.Logout()
	a.dropPage()
	a.started.Store(true)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.logger.Info("user logged out", slog.String("email", email))
	return nil
}

// Page is the dashboard of the signed-in role, nil when signed out.
func (a *App) Page() dashboard.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Touch records activity for idle sweeping.
func (a *App) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeen = a.now()
}

func (a *App) LastSeen() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}

func (a *App) buildPage(role domain.Role) {
	page := dashboard.New(role, a.client, a.store.Snapshot().Email, a.logger)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.page = page
}

func (a *App) dropPage() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.page = nil
}
