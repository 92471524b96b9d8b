package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a remote failure for retry decisions.
type ErrorKind int

const (
	// KindTransient failures (network errors, 5xx, 429) are worth
	// retrying; the offline queue keeps the operation for a later drain.
	KindTransient ErrorKind = iota
	// KindPermanent failures (other 4xx) will not succeed on retry and
	// halt a queue drain at the failing operation.
	KindPermanent
)

// Error is a classified remote-store failure.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status, 0 for network-level failures
	Msg    string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s (status %d)", e.Msg, e.Status)
	}
	return "remote: " + e.Msg
}

// IsTransient reports whether err is a retryable remote failure.
// Network-level errors without classification count as transient.
func IsTransient(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == KindTransient
	}
	// Unclassified failures are assumed transient so the queue retries
	// rather than wedging on, e.g., a timeout wrapped by a caller.
	return true
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) ErrorKind {
	if status >= 500 || status == 429 {
		return KindTransient
	}
	return KindPermanent
}
