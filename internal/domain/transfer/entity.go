package domain_transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transfer struct {
	id uuid.UUID

	fromAccountID int64
	toAccountID   int64
	amount        decimal.Decimal

	status  Status
	message string

	createdAt time.Time
	updatedAt time.Time

	pendingEvents []DomainEvent
}

type NewParams struct {
	TransferID uuid.UUID
	Request    Request
	Now        time.Time
}

// New builds a transfer in its initial PENDING state, before the ledger is called.
func New(p NewParams) (*Transfer, error) {
	if p.TransferID == uuid.Nil {
		return nil, ErrInvalidTransferID
	}

	req, err := NewRequest(p.Request.fromAccountID, p.Request.toAccountID, p.Request.amount)
	if err != nil {
		return nil, err
	}

	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	t := &Transfer{
		id:            p.TransferID,
		fromAccountID: req.fromAccountID,
		toAccountID:   req.toAccountID,
		amount:        req.amount,
		status:        StatusPending,
		createdAt:     p.Now,
		updatedAt:     p.Now,
	}

	t.raise(TransferRequested{
		At:            p.Now,
		TransferID:    t.id,
		FromAccountID: t.fromAccountID,
		ToAccountID:   t.toAccountID,
		Amount:        t.amount,
	})

	return t, nil
}

// RestoreParams carries a persisted transfer back into the domain.
type RestoreParams struct {
	TransferID    uuid.UUID
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	Status        Status
	Message       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Restore rehydrates a stored transfer. It raises no events.
func Restore(p RestoreParams) (*Transfer, error) {
	if p.TransferID == uuid.Nil {
		return nil, ErrInvalidTransferID
	}

	if !p.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	return &Transfer{
		id:            p.TransferID,
		fromAccountID: p.FromAccountID,
		toAccountID:   p.ToAccountID,
		amount:        p.Amount,
		status:        p.Status,
		message:       p.Message,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}, nil
}

func (t *Transfer) Complete(message string, now time.Time) error {
	return t.finalize(StatusCompleted, message, now)
}

func (t *Transfer) Fail(reason string, now time.Time) error {
	return t.finalize(StatusFailed, reason, now)
}

func (t *Transfer) finalize(to Status, message string, now time.Time) error {
	if t.status.IsFinal() {
		return ErrAlreadyFinalized
	}

	if t.status != StatusPending || !to.IsFinal() {
		return ErrInvalidStateTransition
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	t.status = to
	t.message = message
	t.updatedAt = now

	if to == StatusCompleted {
		t.raise(TransferCompleted{
			At:         now,
			TransferID: t.id,
			Message:    message,
		})
	} else {
		t.raise(TransferFailed{
			At:         now,
			TransferID: t.id,
			Reason:     message,
		})
	}

	return nil
}

func (t *Transfer) PullEvents() []DomainEvent {
	if len(t.pendingEvents) == 0 {
		return nil
	}

	ev := make([]DomainEvent, len(t.pendingEvents))
	copy(ev, t.pendingEvents)

	t.pendingEvents = t.pendingEvents[:0]

	return ev
}

func (t *Transfer) raise(event DomainEvent) {
	t.pendingEvents = append(t.pendingEvents, event)
}

func (t *Transfer) ID() uuid.UUID { return t.id }

func (t *Transfer) FromAccountID() int64 { return t.fromAccountID }

func (t *Transfer) ToAccountID() int64 { return t.toAccountID }

func (t *Transfer) Amount() decimal.Decimal { return t.amount }

func (t *Transfer) Status() Status { return t.status }

func (t *Transfer) Message() string { return t.message }

func (t *Transfer) CreatedAt() time.Time { return t.createdAt }

func (t *Transfer) UpdatedAt() time.Time { return t.updatedAt }
