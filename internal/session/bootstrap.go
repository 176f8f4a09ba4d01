package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/observability/metrics"
)

// Outcome is the result of a bootstrap run.
type Outcome int

const (
	// NoToken means nothing was persisted; the session is unauthenticated.
	NoToken Outcome = iota
	// Restored means the persisted token was accepted and the session populated.
	Restored
	// Rejected means verification failed; the persisted token is left in place.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case NoToken:
		return "no_token"
	case Restored:
		return "restored"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Verifier redeems a token for the identity it belongs to.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*backend.Identity, error)
}

// Bootstrapper restores a session from the persisted token before any
// protected view is rendered.
type Bootstrapper struct {
	tokens   domain.TokenStore
	verifier Verifier
	store    Writer
	logger   *slog.Logger
}

// NewBootstrapper creates a bootstrapper writing into store.
func NewBootstrapper(tokens domain.TokenStore, verifier Verifier, store Writer, logger *slog.Logger) *Bootstrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrapper{
		tokens:   tokens,
		verifier: verifier,
		store:    store,
		logger:   logger,
	}
}

// Run performs the one-shot verification. It never fails: every error path
// ends in an unauthenticated session.
func (b *Bootstrapper) Run(ctx context.Context) Outcome {
	outcome := b.run(ctx)
	metrics.ObserveBootstrap(outcome.String())
	return outcome
}

func (b *Bootstrapper) run(ctx context.Context) Outcome {
	token, err := b.tokens.Load(ctx)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, domain.ErrNoToken) {
			b.logger.Warn("failed to load persisted token", slog.String("error", err.Error()))
		}
		b.store.SetAuthenticated(false)
		return NoToken
	}

	identity, err := b.verifier.VerifyToken(ctx, token)
	if err != nil {
		b.logger.Info("persisted token rejected", slog.String("error", err.Error()))
		b.store.SetAuthenticated(false)
		return Rejected
	}

	role, ok := domain.ParseRole(identity.Role)
	if !ok {
		b.logger.Warn("verify-token returned unknown role", slog.String("role", identity.Role))
		b.store.SetAuthenticated(false)
		return Rejected
	}

	b.store.Establish(token, identity.Email, role)
	b.logger.Info("session restored",
		slog.String("email", identity.Email),
		slog.String("role", role.String()),
	)
	return Restored
}

// Logout clears every session field and removes the persisted token. The
// store is cleared even when removal fails.
func Logout(ctx context.Context, store Writer, tokens domain.TokenStore) error {
	store.Reset()
	if err := tokens.Remove(ctx); err != nil && !errors.Is(err, domain.ErrNoToken) {
		return fmt.Errorf("failed to remove persisted token: %w", err)
	}
	return nil
}
