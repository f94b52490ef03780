package domain_ledger

import "strings"

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ParseStatus accepts the ledger's status string case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusSuccess:
		return StatusSuccess, true
	case StatusFailure:
		return StatusFailure, true
	default:
		return "", false
	}
}

// Outcome is the typed result of a ledger call. Both fields are always set
// together through Success or Failure.
type Outcome struct {
	Status  Status
	Message string
}

func Success(message string) Outcome {
	return Outcome{Status: StatusSuccess, Message: message}
}

func Failure(message string) Outcome {
	return Outcome{Status: StatusFailure, Message: message}
}

func (o Outcome) IsFailure() bool {
	return o.Status == StatusFailure
}
