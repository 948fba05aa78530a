package a2s

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrTimeout is returned when no reply arrives within the read timeout.
	ErrTimeout = errors.New("query timeout")

	// ErrUnreachable is returned when the port actively refuses or the network fails.
	ErrUnreachable = errors.New("server unreachable")

	// ErrMalformedResponse is returned for a header mismatch or a too short reply.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrDecode is returned when the info payload cannot be decoded.
	ErrDecode = errors.New("parse failure")
)

// ErrUnexpectedType is returned when the reply type byte is neither a challenge nor an info reply.
type ErrUnexpectedType struct {
	Type byte
}

// Error returns the error string.
func (e *ErrUnexpectedType) Error() string {
	return fmt.Sprintf("unexpected response type: 0x%02x", e.Type)
}

// Unwrap makes the error match ErrMalformedResponse.
func (e *ErrUnexpectedType) Unwrap() error {
	return ErrMalformedResponse
}

// classify maps a socket error to the error taxonomy.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: connection refused", ErrUnreachable)
	default:
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
}

// resultFor converts a failed exchange into an Offline or Error result.
func resultFor(err error) Result {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrUnreachable):
		return offline(err.Error(), err)
	default:
		return failed(err.Error(), err)
	}
}
