package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoToken is returned by a TokenStore when no token is persisted.
var ErrNoToken = errors.New("no persisted token")

// TokenStore persists the single session token of one console session.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// AuditEntry records one mutation performed through the console.
type AuditEntry struct {
	ID         int64
	Action     string
	Resource   string
	ResourceID string
	ActorEmail string
	ActorRole  Role
	Status     string
	Details    string
	RequestID  string
	CreatedAt  time.Time
}

// AuditRepository stores audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*AuditEntry, error)
}
