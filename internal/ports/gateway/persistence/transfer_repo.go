package port_persistence

import (
	"context"
	"errors"

	domain_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/transfer"
	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("persistence: not found")
	ErrAlreadyFinalized = errors.New("persistence: transfer already finalized")
)

type TransferRepository interface {
	// Create persists a transfer in its initial PENDING state.
	Create(ctx context.Context, t *domain_transfer.Transfer) error
	// Finalize writes the transfer's terminal status. It succeeds at most once
	// per transfer; later calls return ErrAlreadyFinalized.
	Finalize(ctx context.Context, t *domain_transfer.Transfer) error
	GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error)
}
