package impl_memory

import (
	"context"
	"fmt"
	"sync"

	domain_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
)

type TransferStore struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]domain_transfer.RestoreParams
}

func NewTransferStore() *TransferStore {
	return &TransferStore{transfers: make(map[uuid.UUID]domain_transfer.RestoreParams)}
}

func (s *TransferStore) Create(_ context.Context, t *domain_transfer.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[t.ID()]; ok {
		return fmt.Errorf("transfer %s already exists", t.ID())
	}

	s.transfers[t.ID()] = snapshot(t)
	return nil
}

func (s *TransferStore) Finalize(_ context.Context, t *domain_transfer.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.transfers[t.ID()]
	if !ok {
		return port_persistence.ErrNotFound
	}
	if cur.Status != domain_transfer.StatusPending {
		return port_persistence.ErrAlreadyFinalized
	}

	cur.Status = t.Status()
	cur.Message = t.Message()
	cur.UpdatedAt = t.UpdatedAt()
	s.transfers[t.ID()] = cur

	return nil
}

func (s *TransferStore) GetByID(_ context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error) {
	s.mu.RLock()
	p, ok := s.transfers[transferID]
	s.mu.RUnlock()

	if !ok {
		return nil, port_persistence.ErrNotFound
	}

	return domain_transfer.Restore(p)
}

func snapshot(t *domain_transfer.Transfer) domain_transfer.RestoreParams {
	return domain_transfer.RestoreParams{
		TransferID:    t.ID(),
		FromAccountID: t.FromAccountID(),
		ToAccountID:   t.ToAccountID(),
		Amount:        t.Amount(),
		Status:        t.Status(),
		Message:       t.Message(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
}
