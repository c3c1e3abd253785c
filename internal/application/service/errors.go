package service

import "errors"

// Guard failure sentinels. The HTTP boundary maps these to status codes;
// none of them is returned after a mutation has been applied.
var (
	// ErrNotFound is returned when the target entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the actor lacks the required
	// relationship or role for the operation
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidState is returned when the operation is attempted while the
	// mission, validation or signature is not in the required state
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidInput is returned for malformed or missing required fields
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDecision is returned for decision values outside the
	// accepted set
	ErrInvalidDecision = errors.New("invalid decision value")
)
