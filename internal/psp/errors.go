package psp

import "fmt"

// AuthenticationError indicates the merchant credentials were rejected by the
// PSP. Fatal for the calling operation; never retried.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("psp authentication failed: %s", e.Message)
}

// GatewayError indicates a transient network or PSP-side fault.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("psp gateway error during %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates the PSP has no record for the given id or token.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("psp %s not found: %s", e.Kind, e.ID)
}
