package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential is returned by Complete when no API key is configured.
var ErrMissingCredential = errors.New("missing API credential")

// TransportError wraps a network failure: the request never produced an
// HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a non-2xx response. Body is kept verbatim.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError is a 2xx response whose body could not be parsed
// into the expected shape.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable reports whether err is the kind of failure a caller may retry:
// transport failures, rate limits and server errors.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}
	var protocol *ProtocolError
	if errors.As(err, &protocol) {
		return protocol.StatusCode == 429 || protocol.StatusCode >= 500
	}
	return false
}
