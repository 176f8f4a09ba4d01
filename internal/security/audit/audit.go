// Package audit records console mutations.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/orderdesk/internal/domain"
)

// Outcomes.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusInvalid  = "invalid"
	StatusError    = "error"
)

type requestIDKey struct{}

// WithRequestID stores the request id that audit entries carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id in ctx, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Actor is who performed an action.
type Actor struct {
	Email string
	Role  domain.Role
}

// Logger writes audit entries to the structured log and, when a repository
// is set, to the database.
type Logger struct {
	logger *slog.Logger
	repo   domain.AuditRepository
}

// NewLogger creates an audit logger; repo may be nil.
func NewLogger(logger *slog.Logger, repo domain.AuditRepository) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, repo: repo}
}

// LogAction records one action. Persistence failures are logged, never
// returned.
func (al *Logger) LogAction(ctx context.Context, actor Actor, action, resource, resourceID, status, details string) {
	entry := &domain.AuditEntry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		ActorEmail: actor.Email,
		ActorRole:  actor.Role,
		Status:     status,
		Details:    details,
		RequestID:  RequestID(ctx),
		CreatedAt:  time.Now(),
	}

	al.logger.Info("audit",
		slog.String("action", entry.Action),
		slog.String("resource", entry.Resource),
		slog.String("resource_id", entry.ResourceID),
		slog.String("actor_email", entry.ActorEmail),
		slog.String("actor_role", string(entry.ActorRole)),
		slog.String("status", entry.Status),
		slog.String("details", entry.Details),
		slog.String("request_id", entry.RequestID),
		slog.Time("timestamp", entry.CreatedAt),
	)

	if al.repo == nil {
		return
	}
	if err := al.repo.Insert(context.WithoutCancel(ctx), entry); err != nil {
		al.logger.Warn("failed to persist audit entry", slog.String("error", err.Error()))
	}
}

func (al *Logger) LogLogin(ctx context.Context, email, status, details string) {
	al.LogAction(ctx, Actor{Email: email}, "login", "session", "", status, details)
}

func (al *Logger) LogLogout(ctx context.Context, actor Actor) {
	al.LogAction(ctx, actor, "logout", "session", "", StatusSuccess, "")
}

// Recent returns the newest persisted entries, or nil without a repository.
func (al *Logger) Recent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if al.repo == nil {
		return nil, nil
	}
	return al.repo.ListRecent(ctx, limit)
}

// Persistent reports whether entries are stored in a database.
func (al *Logger) Persistent() bool { return al.repo != nil }
