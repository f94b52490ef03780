package domain_transfer

import "errors"

var (
	ErrInvalidTransferID = errors.New("transfer: invalid transfer_id")
	ErrInvalidAccountID  = errors.New("transfer: account ids must be positive")
	ErrSameAccount       = errors.New("transfer: from_account_id equals to_account_id")
	ErrInvalidAmount     = errors.New("transfer: amount must be > 0")
	ErrInvalidScale      = errors.New("transfer: amount must have at most 2 decimal places")
	ErrInvalidStatus     = errors.New("transfer: unknown status")

	ErrInvalidStateTransition = errors.New("transfer: invalid state transition")
	ErrAlreadyFinalized       = errors.New("transfer: transfer already finalized")
)
