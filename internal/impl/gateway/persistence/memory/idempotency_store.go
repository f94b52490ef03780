package impl_memory

import (
	"context"
	"sync"
	"time"

	domain_idempotency "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/idempotency"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

// IdempotencyStore keeps records in a mutex-guarded map. It is only
// consistent within a single process.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]domain_idempotency.Record
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[string]domain_idempotency.Record)}
}

func (s *IdempotencyStore) FindByKey(_ context.Context, key string) (*domain_idempotency.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, port_persistence.ErrNotFound
	}

	return cloneRecord(rec), nil
}

func (s *IdempotencyStore) Claim(_ context.Context, key, fingerprint string, now time.Time) (*domain_idempotency.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; ok {
		return nil, port_persistence.ErrAlreadyExists
	}

	rec := domain_idempotency.Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	s.records[key] = rec

	return cloneRecord(rec), nil
}

func (s *IdempotencyStore) Resolve(_ context.Context, key string, transferID uuid.UUID, response []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return port_persistence.ErrNotFound
	}
	if rec.IsResolved() {
		return port_persistence.ErrAlreadyResolved
	}

	id := transferID
	rec.TransferID = &id
	rec.Response = append([]byte(nil), response...)
	s.records[key] = rec

	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	if rec.IsResolved() {
		return port_persistence.ErrAlreadyResolved
	}

	delete(s.records, key)
	return nil
}

func (s *IdempotencyStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, key)
			n++
		}
	}

	return n, nil
}

func cloneRecord(rec domain_idempotency.Record) *domain_idempotency.Record {
	out := rec
	if rec.TransferID != nil {
		id := *rec.TransferID
		out.TransferID = &id
	}
	if rec.Response != nil {
		out.Response = append([]byte(nil), rec.Response...)
	}
	return &out
}
