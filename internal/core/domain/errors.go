package domain

import "errors"

var (
	// ErrInvalidInput is returned for blank chat messages.
	ErrInvalidInput = errors.New("message must not be empty")
	// ErrSessionBusy is returned when a message arrives while a reply is being generated.
	ErrSessionBusy = errors.New("session is busy generating a reply")
	// ErrGenerationTimeout is reported when a generation does not finish in time.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the session registry is full.
	ErrTooManySessions = errors.New("too many active sessions")

	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTripNotFound = errors.New("trip not found")
)
