package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a save violates a uniqueness rule
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when a stored document cannot be decoded
	ErrInvalidInput = errors.New("invalid input")
)
