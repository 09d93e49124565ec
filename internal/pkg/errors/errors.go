package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTransition rejects a conversation status change that is not
	// in the allowed transition table. No state is mutated on this path.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUserNotReady means the owning user has not propagated from the
	// identity provider yet. Callers may retry the whole operation; distinct
	// from ErrNotFound, which is terminal.
	ErrUserNotReady = errors.New("user not yet available")
	// ErrPolicyRejected means the text generator refused the prompt for
	// safety/policy reasons. Callers select a canned crisis response instead
	// of treating this as a generic failure.
	ErrPolicyRejected = errors.New("generation rejected by content policy")
)
