package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PGIdempotencyRepository records payment idempotency keys in Postgres.
// Keys stop counting as seen once expires_at has passed.
type PGIdempotencyRepository struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyRepository(db *sqlx.DB, ttl time.Duration) *PGIdempotencyRepository {
	return &PGIdempotencyRepository{db: db, ttl: ttl, now: time.Now}
}

func (r *PGIdempotencyRepository) Seen(ctx context.Context, key string) (bool, error) {
	var seen bool
	err := r.db.GetContext(ctx, &seen, `SELECT EXISTS (SELECT 1 FROM idempotency_keys WHERE key = $1 AND expires_at > $2)`, key, r.now())
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return seen, nil
}

func (r *PGIdempotencyRepository) Record(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO idempotency_keys (key, expires_at) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET expires_at = EXCLUDED.expires_at`, key, r.now().Add(r.ttl))
	if err != nil {
		return fmt.Errorf("record idempotency key: %w", err)
	}
	return nil
}

// PurgeExpired deletes keys whose TTL has elapsed and returns how many were removed.
func (r *PGIdempotencyRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return res.RowsAffected()
}
