package model

import "time"

// UserID is the store-assigned numeric identifier of a user.
// Ids are monotonic and never reused.
type UserID int64

// User is the persisted identity record
type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string // bcrypt hash, never the plaintext
	CreatedAt    time.Time
}

// PublicUser is the part of a User that may leave the credential check
type PublicUser struct {
	ID       UserID
	Username string
	Email    string
}

// Public returns the user without its password hash
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
