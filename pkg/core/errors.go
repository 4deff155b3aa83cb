package core

import "errors"

// Common errors.
var (
	// ErrMissingTag means the inbound payload carried no "t" field.
	// Decoding cannot classify such a message; the dispatcher reports
	// it instead of propagating it.
	ErrMissingTag = errors.New("command has no task tag")

	// ErrMissingField means a field the matched task requires was absent.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidCallState means a call command carried a cmd value other
	// than "incoming" or "outgoing".
	ErrInvalidCallState = errors.New("call state must be incoming or outgoing")

	// ErrNotFound is returned by Store.Get for an unknown id.
	ErrNotFound = errors.New("notification not found")
)
