package service

import "errors"

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ValidationError represents a bad-request condition (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError represents a uniqueness or state conflict, such as a
// duplicate email, an already-held role, or a self-delete attempt.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
