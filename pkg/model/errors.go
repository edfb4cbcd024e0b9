package model

import "errors"

var (
	// ErrValidation marks malformed client input. It is always raised before
	// any network call or persisted write.
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks a missing, expired or rejected session.
	ErrAuth = errors.New("not authenticated")
	// ErrNetwork marks transport failures and server-side errors.
	ErrNetwork = errors.New("task service unavailable")
	// ErrNotFound marks a mutation whose target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrParse marks a corrupt persisted or received payload.
	ErrParse = errors.New("malformed payload")
)
