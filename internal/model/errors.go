package model

import "errors"

// Common errors used across the application
var (
	// ErrUserNotFound is returned by stores when no record matches a lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned by stores when the username or email is already taken
	ErrUserExists = errors.New("user already exists")
)
