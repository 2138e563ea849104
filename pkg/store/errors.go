package store

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrVersionConflict  = errors.New("user was modified concurrently")
	ErrDuplicateAPIKey  = errors.New("api key already in use")
	ErrCorruptDocument  = errors.New("stored user document is corrupt")
	ErrInvalidUserInput = errors.New("user cannot be stored")
)
