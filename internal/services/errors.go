package services

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record already exists or is already in the target state
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when a request is malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by Login for unknown, wrong or inactive accounts
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned for operations that are never allowed
	ErrForbidden = errors.New("forbidden")
)
