package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no valid session exists for an
// authenticated call, or when the server answers 401. Callers invalidate
// the session and send the user back to login; the call is never retried
// with the same credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrInvalidCredential is returned when a login response is missing the
// token or user material the contract promises.
var ErrInvalidCredential = errors.New("invalid login response")

// TransportError wraps network failures, timeouts and non-2xx responses.
// It is the only error class a caller may reasonably retry; the client
// itself never does.
type TransportError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("remote %s: status %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }
