package impl_transfer

import (
	"encoding/json"
	"time"

	domain_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/transfer"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"github.com/shopspring/decimal"
)

func toTransferOutput(t *domain_transfer.Transfer) port_transfer.TransferOutput {
	return port_transfer.TransferOutput{
		TransferID:    t.ID().String(),
		Status:        string(t.Status()),
		FromAccountID: t.FromAccountID(),
		ToAccountID:   t.ToAccountID(),
		Amount:        formatAmount(t.Amount()),
		CreatedAt:     t.CreatedAt(),
		Message:       t.Message(),
	}
}

// failedOutput is the synthetic payload returned for a batch item that never
// produced a transfer.
func failedOutput(in port_transfer.CreateTransferInput, message string, now time.Time) port_transfer.TransferOutput {
	return port_transfer.TransferOutput{
		Status:        string(domain_transfer.StatusFailed),
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Amount:        formatAmount(in.Amount),
		CreatedAt:     now,
		Message:       message,
	}
}

func formatAmount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain_transfer.AmountScale))
}
