package impl_redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain_idempotency "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/idempotency"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "idempotency:"
	maxRetries = 5
)

type storedRecord struct {
	Fingerprint string     `json:"fingerprint"`
	TransferID  *uuid.UUID `json:"transferId,omitempty"`
	Response    []byte     `json:"response,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// IdempotencyStore keeps one JSON value per key. Expiry is delegated to Redis,
// so PurgeOlderThan has nothing to do.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewIdempotencyStore stores keys for ttl. ttl <= 0 keeps them forever.
func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl < 0 {
		ttl = 0
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) FindByKey(ctx context.Context, key string) (*domain_idempotency.Record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return decode(key, raw)
}

func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string, now time.Time) (*domain_idempotency.Record, error) {
	raw, err := json.Marshal(storedRecord{Fingerprint: fingerprint, CreatedAt: now})
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, raw, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, port_persistence.ErrAlreadyExists
	}

	return &domain_idempotency.Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}, nil
}

func (s *IdempotencyStore) Resolve(ctx context.Context, key string, transferID uuid.UUID, response []byte) error {
	return s.update(ctx, key, func(tx *redis.Tx, rec *storedRecord) error {
		if len(rec.Response) > 0 {
			return port_persistence.ErrAlreadyResolved
		}

		id := transferID
		rec.TransferID = &id
		rec.Response = response

		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SetArgs(ctx, keyPrefix+key, raw, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	})
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	err := s.update(ctx, key, func(tx *redis.Tx, rec *storedRecord) error {
		if len(rec.Response) > 0 {
			return port_persistence.ErrAlreadyResolved
		}

		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, keyPrefix+key)
			return nil
		})
		return err
	})
	if errors.Is(err, port_persistence.ErrNotFound) {
		return nil
	}
	return err
}

func (s *IdempotencyStore) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// update runs fn under WATCH so a concurrent writer aborts and retries it.
func (s *IdempotencyStore) update(ctx context.Context, key string, fn func(tx *redis.Tx, rec *storedRecord) error) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, keyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return port_persistence.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}

		var rec storedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode idempotency record %q: %w", key, err)
		}

		return fn(tx, &rec)
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, keyPrefix+key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("redis: idempotency key %q kept changing", key)
}

func decode(key string, raw []byte) (*domain_idempotency.Record, error) {
	var rec storedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record %q: %w", key, err)
	}

	return &domain_idempotency.Record{
		Key:         key,
		Fingerprint: rec.Fingerprint,
		TransferID:  rec.TransferID,
		Response:    rec.Response,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
