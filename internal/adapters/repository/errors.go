package repository

import "errors"

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound    = errors.New("note not found")
	ErrExists      = errors.New("note already exists")
	ErrInvalidName = errors.New("invalid note name")
)
