package impl_transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"github.com/google/uuid"
)

type GetTransferUsecaseImpl struct {
	repo port_persistence.TransferRepository
}

func NewGetTransferUsecaseImpl(repo port_persistence.TransferRepository) *GetTransferUsecaseImpl {
	return &GetTransferUsecaseImpl{repo: repo}
}

func (u *GetTransferUsecaseImpl) Execute(ctx context.Context, in port_transfer.GetTransferInput) (port_transfer.TransferOutput, error) {
	// Transfer ids are UUIDs; any other id names no transfer.
	id, err := uuid.Parse(strings.TrimSpace(in.TransferID))
	if err != nil {
		return port_transfer.TransferOutput{}, ErrNotFound
	}

	tr, err := u.repo.GetByID(ctx, id)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return port_transfer.TransferOutput{}, ErrNotFound
	}
	if err != nil {
		return port_transfer.TransferOutput{}, fmt.Errorf("get transfer: %w", err)
	}

	return toTransferOutput(tr), nil
}
