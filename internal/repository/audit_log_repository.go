package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogEntry is a persisted trace of a credential-lifecycle event.
type AuditLogEntry struct {
	ID         string
	Level      string
	EventType  string
	Message    string
	UserID     *string
	ActorEmail *string
	ActorRole  *string
	Data       map[string]any
	CreatedAt  time.Time
}

// AuditLogRepository persists audit trail rows. Writes are best-effort;
// callers decide whether a failure is worth more than a debug log.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *AuditLogEntry) error
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository constructs repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Insert(ctx context.Context, entry *AuditLogEntry) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		data = []byte("{}")
	}

	const query = `
        INSERT INTO audit_logs (level, event_type, message, user_id, actor_email, actor_role, data)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.Level,
		entry.EventType,
		entry.Message,
		entry.UserID,
		entry.ActorEmail,
		entry.ActorRole,
		data,
	).Scan(&entry.ID, &entry.CreatedAt)
}
