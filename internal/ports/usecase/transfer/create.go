package port_transfer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type CreateTransferInput struct {
	IdempotencyKey string
	FromAccountID  int64
	ToAccountID    int64
	Amount         decimal.Decimal
}

// TransferOutput is the response shape shared by create, get and batch.
type TransferOutput struct {
	TransferID    string      `json:"transferId"`
	Status        string      `json:"status"`
	FromAccountID int64       `json:"fromAccountId"`
	ToAccountID   int64       `json:"toAccountId"`
	Amount        json.Number `json:"amount"`
	CreatedAt     time.Time   `json:"createdAt"`
	Message       string      `json:"message"`
}

type CreateTransferOutput struct {
	Transfer TransferOutput
	// Payload is the serialized response exactly as stored for the key.
	Payload  []byte
	Replayed bool
}

type CreateTransferUseCase interface {
	Execute(ctx context.Context, input CreateTransferInput) (CreateTransferOutput, error)
}
