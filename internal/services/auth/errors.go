package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Errors returned by Credentials and Sessions. Messages are safe to show
// to clients; store causes are logged and never wrapped into these.
var (
	// ErrConflict means the username or email is already registered
	ErrConflict = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken means the request carried no bearer token
	ErrMissingToken = errors.New("no token provided")

	// ErrInvalidToken covers malformed, forged and expired tokens alike
	ErrInvalidToken = errors.New("invalid token")

	// ErrStore is the opaque failure reported when persistence fails
	ErrStore = errors.New("store error")
)

// ValidationError is a caller-fixable problem with the request input
type ValidationError struct {
	Message string
	Fields  validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(message string, err error) *ValidationError {
	ve := &ValidationError{Message: message}
	var fields validation.Errors
	if errors.As(err, &fields) {
		ve.Fields = fields
	}
	return ve
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
