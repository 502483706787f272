package domain

import "errors"

var (
	// ErrNotFound means the referenced thread does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means a non-owner attempted an owner-only action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidProposal means an untrusted proposal failed structural validation.
	ErrInvalidProposal = errors.New("invalid proposal")
	// ErrStateConflict means a transition guard rejected the current status.
	ErrStateConflict = errors.New("state conflict")
	// ErrInvalidInput means a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
)
