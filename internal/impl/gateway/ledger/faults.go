package impl_ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
)

// FaultClass names why a ledger call produced no usable outcome. It is the
// suffix of the fallback message.
type FaultClass string

const (
	ClassCircuitBreakerOpen FaultClass = "CircuitBreakerOpen"
	ClassTooManyTrialCalls  FaultClass = "TooManyTrialCalls"
	ClassTimeout            FaultClass = "Timeout"
	ClassCanceled           FaultClass = "Canceled"
	ClassTransportError     FaultClass = "TransportError"
	ClassUnexpectedStatus   FaultClass = "UnexpectedStatus"
	ClassDecodeError        FaultClass = "DecodeError"
	ClassPanic              FaultClass = "Panic"
	ClassInternalError      FaultClass = "InternalError"
)

// GatewayError is a ledger fault raised by the gateway itself.
type GatewayError struct {
	Class      FaultClass
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	msg := "ledger: " + string(e.Class)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

func classify(err error) FaultClass {
	var gwErr *GatewayError

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return ClassCircuitBreakerOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return ClassTooManyTrialCalls
	case errors.As(err, &gwErr):
		return gwErr.Class
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	default:
		return ClassInternalError
	}
}
