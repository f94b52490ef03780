package port_ledger

import (
	"context"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest is what the ledger needs to move funds. TransferID lets the
// ledger deduplicate retries of the same logical transfer.
type TransferRequest struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	TransferID    uuid.UUID
}

// Gateway performs the single network call. Transport and protocol faults are
// returned as errors for the caller to contain.
type Gateway interface {
	PostTransfer(ctx context.Context, req TransferRequest) (domain_ledger.Outcome, error)
}

// ResilientLedger never returns a fault: every call resolves to an Outcome.
type ResilientLedger interface {
	PostTransfer(ctx context.Context, req TransferRequest) domain_ledger.Outcome
	State() string
}
