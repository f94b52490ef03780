package port_transfer

import "context"

type GetTransferInput struct {
	TransferID string
}

type GetTransferUseCase interface {
	Execute(ctx context.Context, input GetTransferInput) (TransferOutput, error)
}
