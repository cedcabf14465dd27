package session

import "errors"

var (
	// ErrNotAuthorized is returned by Start when the position source has not
	// been granted permission to deliver fixes.
	ErrNotAuthorized = errors.New("session: position source not authorized")

	// ErrInvalidTransition is returned when a command does not apply to the
	// current state, such as Cancel while Idle.
	ErrInvalidTransition = errors.New("session: invalid state transition")

	// ErrStopped is returned by commands issued after Run has returned.
	ErrStopped = errors.New("session: stopped")
)
