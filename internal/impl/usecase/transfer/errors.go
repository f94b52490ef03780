package impl_transfer

import (
	"errors"
	"fmt"
)

var (
	ErrIdempotencyConflict = errors.New("idempotency key conflict: different payload for same key")
	ErrInvalidInput        = errors.New("invalid input data")
	ErrRequestInProgress   = errors.New("a request with this idempotency key is still in progress")
	ErrNotFound            = errors.New("transfer not found")
	ErrBatchTooLarge       = fmt.Errorf("%w: batch exceeds maximum size", ErrInvalidInput)
)
