package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/usage"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS usage_events (
  id          UUID         PRIMARY KEY,
  kind        VARCHAR(16)  NOT NULL,
  mime_type   VARCHAR(64)  NOT NULL DEFAULT '',
  bytes       BIGINT       NOT NULL,
  status      VARCHAR(16)  NOT NULL,
  duration_ms BIGINT       NOT NULL,
  created_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_events_created_at ON usage_events (created_at);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a usage event; replays of the same id are ignored
func (r *UsageRepository) Save(ctx context.Context, e *domain.Event) error {
	const q = `
INSERT INTO usage_events
  (id, kind, mime_type, bytes, status, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING;
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.Kind), e.MimeType, e.Bytes, string(e.Status), e.DurationMS, createdAt.UTC())
	return err
}

func (r *UsageRepository) Recent(ctx context.Context, limit int) ([]*domain.Event, error) {
	if limit <= 0 { limit = 20 }
	if limit > 100 { limit = 100 }

	const q = `
SELECT id, kind, mime_type, bytes, status, duration_ms, created_at
FROM usage_events
ORDER BY created_at DESC, id DESC
LIMIT $1;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil { return nil, err }
	defer rows.Close()

	out := []*domain.Event{}
	for rows.Next() {
		var e domain.Event
		var kind, status string
		if err := rows.Scan(&e.ID, &kind, &e.MimeType, &e.Bytes, &status, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = domain.Kind(kind)
		e.Status = domain.Status(status)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *UsageRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
