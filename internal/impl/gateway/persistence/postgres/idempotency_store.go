package impl_postgres

import (
	"context"
	"errors"
	"time"

	domain_idempotency "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/idempotency"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdempotencyStore struct {
	pool *pgxpool.Pool
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

func (s *IdempotencyStore) FindByKey(ctx context.Context, key string) (*domain_idempotency.Record, error) {
	rec := domain_idempotency.Record{Key: key}

	err := conn(ctx, s.pool).QueryRow(ctx,
		`SELECT fingerprint, transfer_id, response, created_at
		 FROM idempotency_keys WHERE idempotency_key = $1`,
		key,
	).Scan(&rec.Fingerprint, &rec.TransferID, &rec.Response, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string, now time.Time) (*domain_idempotency.Record, error) {
	tag, err := conn(ctx, s.pool).Exec(ctx,
		`INSERT INTO idempotency_keys (idempotency_key, fingerprint, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (idempotency_key) DO NOTHING`,
		key, fingerprint, now,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, port_persistence.ErrAlreadyExists
	}

	return &domain_idempotency.Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}, nil
}

func (s *IdempotencyStore) Resolve(ctx context.Context, key string, transferID uuid.UUID, response []byte) error {
	q := conn(ctx, s.pool)

	tag, err := q.Exec(ctx,
		`UPDATE idempotency_keys SET transfer_id = $2, response = $3
		 WHERE idempotency_key = $1 AND response IS NULL`,
		key, transferID, response,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	resolved, err := s.isResolved(ctx, q, key)
	if err != nil {
		return err
	}
	if resolved {
		return port_persistence.ErrAlreadyResolved
	}
	return port_persistence.ErrNotFound
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	q := conn(ctx, s.pool)

	tag, err := q.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE idempotency_key = $1 AND response IS NULL`,
		key,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	resolved, err := s.isResolved(ctx, q, key)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if resolved {
		return port_persistence.ErrAlreadyResolved
	}
	return nil
}

func (s *IdempotencyStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := conn(ctx, s.pool).Exec(ctx,
		`DELETE FROM idempotency_keys WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *IdempotencyStore) isResolved(ctx context.Context, q querier, key string) (bool, error) {
	var resolved bool
	err := q.QueryRow(ctx,
		`SELECT response IS NOT NULL FROM idempotency_keys WHERE idempotency_key = $1`,
		key,
	).Scan(&resolved)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, port_persistence.ErrNotFound
	}
	return resolved, err
}
