package tokencache

import (
	"fmt"
)

// TransportError means the token endpoint could not be reached.
type TransportError struct {
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("token exchange transport error: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthenticationFailure means the authority answered with a non-2xx status.
type AuthenticationFailure struct {
	Status int
}

// Error implements error.
func (e *AuthenticationFailure) Error() string {
	return fmt.Sprintf("token exchange rejected by authority: status=%d", e.Status)
}

// ProtocolError means the authority answered 2xx with an unusable body.
type ProtocolError struct {
	Reason string
	Err    error
}

// Error implements error.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange protocol error: %s: %v", e.Reason, e.Err)
	}
	return "token exchange protocol error: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}
