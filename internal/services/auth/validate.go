package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// MinPasswordLength is the shortest password accepted at registration,
// counted in characters
const MinPasswordLength = 6

const (
	msgAllFieldsRequired       = "All fields are required"
	msgPasswordTooShort        = "Password must be at least 6 characters"
	msgEmailAndPasswordMissing = "Email and password are required"
)

type registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registration) validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
	if err != nil {
		return newValidationError(msgAllFieldsRequired, err)
	}

	err = validation.ValidateStruct(&r,
		validation.Field(&r.Password,
			validation.RuneLength(MinPasswordLength, 0).Error(msgPasswordTooShort)),
	)
	if err != nil {
		return newValidationError(msgPasswordTooShort, err)
	}
	return nil
}

type login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l login) validate() error {
	err := validation.ValidateStruct(&l,
		validation.Field(&l.Email, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
	if err != nil {
		return newValidationError(msgEmailAndPasswordMissing, err)
	}
	return nil
}
