package domain_idempotency

import (
	"time"

	"github.com/google/uuid"
)

// Record binds a client idempotency key to the fingerprint of the first request
// that used it and, once resolved, to the response that request produced.
type Record struct {
	Key         string
	Fingerprint string
	TransferID  *uuid.UUID
	Response    []byte
	CreatedAt   time.Time
}

// IsResolved reports whether a response payload has been stored. A resolved
// record is never overwritten.
func (r *Record) IsResolved() bool {
	return r != nil && len(r.Response) > 0
}

func (r *Record) Matches(fingerprint string) bool {
	return r != nil && r.Fingerprint == fingerprint
}
