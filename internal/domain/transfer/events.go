package domain_transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

type TransferRequested struct {
	At         time.Time
	TransferID uuid.UUID

	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
}

func (e TransferRequested) EventName() string { return "transfer.requested" }

func (e TransferRequested) OccurredAt() time.Time { return e.At }

func (e TransferRequested) AggregateID() uuid.UUID { return e.TransferID }

type TransferCompleted struct {
	At         time.Time
	TransferID uuid.UUID
	Message    string
}

func (e TransferCompleted) EventName() string { return "transfer.completed" }

func (e TransferCompleted) OccurredAt() time.Time { return e.At }

func (e TransferCompleted) AggregateID() uuid.UUID { return e.TransferID }

type TransferFailed struct {
	At         time.Time
	TransferID uuid.UUID
	Reason     string
}

func (e TransferFailed) EventName() string { return "transfer.failed" }

func (e TransferFailed) OccurredAt() time.Time { return e.At }

func (e TransferFailed) AggregateID() uuid.UUID { return e.TransferID }
