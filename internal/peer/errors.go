package peer

import (
	"errors"
	"fmt"
)

var (
	ErrPeerDisconnected = errors.New("peer disconnected")
	ErrClosed           = errors.New("negotiation closed")
	ErrNoTransport      = errors.New("peer connection not ready")
	ErrWrongRole        = errors.New("message does not match role")
)

// NegotiationError wraps a failure inside the offer/answer/candidate
// exchange with the operation that produced it.
type NegotiationError struct {
	Op      string
	Err     error
	Details string
}

func (e *NegotiationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *NegotiationError {
	return &NegotiationError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *NegotiationError {
	return &NegotiationError{Op: op, Err: err, Details: details}
}
