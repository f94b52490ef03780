package domain_transfer

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits a transfer amount may carry.
const AmountScale = 2

// Request is the validated, immutable body of a create-transfer call.
type Request struct {
	fromAccountID int64
	toAccountID   int64
	amount        decimal.Decimal
}

func NewRequest(fromAccountID, toAccountID int64, amount decimal.Decimal) (Request, error) {
	if fromAccountID <= 0 || toAccountID <= 0 {
		return Request{}, ErrInvalidAccountID
	}

	if fromAccountID == toAccountID {
		return Request{}, ErrSameAccount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return Request{}, ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return Request{}, ErrInvalidScale
	}

	return Request{
		fromAccountID: fromAccountID,
		toAccountID:   toAccountID,
		amount:        amount,
	}, nil
}

func (r Request) FromAccountID() int64 { return r.fromAccountID }

func (r Request) ToAccountID() int64 { return r.toAccountID }

func (r Request) Amount() decimal.Decimal { return r.amount }
