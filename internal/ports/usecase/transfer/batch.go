package port_transfer

import (
	"context"
	"encoding/json"
)

type BatchCreateTransfersInput struct {
	Items []CreateTransferInput
}

type BatchResult struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	Response       json.RawMessage `json:"response"`
	Failed         bool            `json:"-"`
}

type BatchCreateTransfersOutput struct {
	Results []BatchResult `json:"results"`
}

type BatchCreateTransfersUseCase interface {
	Execute(ctx context.Context, input BatchCreateTransfersInput) (BatchCreateTransfersOutput, error)
}
