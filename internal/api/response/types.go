package response

import (
	"time"

	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/services/auth"
)

// User represents a user in API responses
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserFromModel converts a model.PublicUser to a response User
func UserFromModel(u model.PublicUser) User {
	return User{
		ID:       int64(u.ID),
		Username: u.Username,
		Email:    u.Email,
	}
}

// RegisterResponse is the response for a successful registration
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// LoginResponse is the response for a successful login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// LoginResponseFromToken creates a LoginResponse from an issued token
func LoginResponseFromToken(t *auth.Token) LoginResponse {
	return LoginResponse{
		Token:     t.Value,
		ExpiresAt: t.Claim.ExpiresAt,
		User: User{
			ID:       int64(t.Claim.ID),
			Username: t.Claim.Username,
			Email:    t.Claim.Email,
		},
	}
}

// Claim represents a verified token claim
type Claim struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ClaimFromAuth converts an auth.Claim to a response Claim
func ClaimFromAuth(c *auth.Claim) Claim {
	return Claim{
		ID:        int64(c.ID),
		Username:  c.Username,
		Email:     c.Email,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

// MeResponse is the response for the current-user endpoint
type MeResponse struct {
	User Claim `json:"user"`
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
