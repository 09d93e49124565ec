// Package apierr carries service errors across the HTTP boundary. The
// handler layer maps the service taxonomy (invalid argument, invalid
// transition, not found, user not ready, policy rejected) onto these and
// the response writer renders Status and Code to the client.
package apierr

import "fmt"

// Error pairs an HTTP status with a stable machine-readable code, e.g.
// 409/"invalid_transition" for a rejected lifecycle change or
// 503/"user_not_ready" when identity propagation is still in flight.
// Wrapping keeps the service error reachable through errors.Is.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
