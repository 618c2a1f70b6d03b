package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
	// ErrLocked is returned when a cash note is locked and cannot be operated on
	ErrLocked = errors.New("resource locked")
	// ErrInternal is returned for unexpected store or infrastructure failures
	ErrInternal = errors.New("internal error")
)
