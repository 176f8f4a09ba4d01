package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/orderdesk/internal/domain"
)

const auditSchema = `
	CREATE TABLE IF NOT EXISTS console_audit (
		id          BIGSERIAL PRIMARY KEY,
		action      TEXT NOT NULL,
		resource    TEXT NOT NULL,
		resource_id TEXT NOT NULL DEFAULT '',
		actor_email TEXT NOT NULL DEFAULT '',
		actor_role  TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		details     TEXT NOT NULL DEFAULT '',
		request_id  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresAuditRepository implements domain.AuditRepository using PostgreSQL
type PostgresAuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresAuditRepository creates a new audit repository
func NewPostgresAuditRepository(db *sql.DB, logger *slog.Logger) *PostgresAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuditRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the audit table when missing.
func (r *PostgresAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

// Insert stores an entry and fills in its id and creation time.
func (r *PostgresAuditRepository) Insert(ctx context.Context, e *domain.AuditEntry) error {
	query := `
		INSERT INTO console_audit (action, resource, resource_id, actor_email, actor_role, status, details, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Action,
		e.Resource,
		e.ResourceID,
		e.ActorEmail,
		string(e.ActorRole),
		e.Status,
		e.Details,
		e.RequestID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		r.logger.Error("failed to insert audit entry",
			slog.String("action", e.Action),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries first.
func (r *PostgresAuditRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, action, resource, resource_id, actor_email, actor_role, status, details, request_id, created_at
		FROM console_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		e := &domain.AuditEntry{}
		var role string
		if err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.Resource,
			&e.ResourceID,
			&e.ActorEmail,
			&role,
			&e.Status,
			&e.Details,
			&e.RequestID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.ActorRole = domain.Role(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
