package port_persistence

import (
	"context"
	"errors"
	"time"

	domain_idempotency "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/idempotency"
	"github.com/google/uuid"
)

var (
	ErrAlreadyExists   = errors.New("persistence: idempotency key already claimed")
	ErrAlreadyResolved = errors.New("persistence: idempotency key already resolved")
)

// IdempotencyRepository is the serialization point for concurrent requests
// sharing a key. FindByKey and Claim must be strongly consistent: a successful
// Claim is visible to every later FindByKey.
type IdempotencyRepository interface {
	// FindByKey returns ErrNotFound when no record exists.
	FindByKey(ctx context.Context, key string) (*domain_idempotency.Record, error)
	// Claim atomically inserts a fingerprint-only record, or returns
	// ErrAlreadyExists when the key is taken.
	Claim(ctx context.Context, key, fingerprint string, now time.Time) (*domain_idempotency.Record, error)
	// Resolve stores the transfer id and response once; a second call returns
	// ErrAlreadyResolved.
	Resolve(ctx context.Context, key string, transferID uuid.UUID, response []byte) error
	// Release removes an unresolved claim so the key can be retried.
	Release(ctx context.Context, key string) error
	// PurgeOlderThan deletes records created before cutoff regardless of
	// resolution and returns how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
