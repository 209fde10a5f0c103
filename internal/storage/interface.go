package storage

import (
	"context"

	"github.com/mcoot/taskauth/internal/model"
)

// UserStore persists user identity records.
//
// Implementations enforce username and email uniqueness themselves:
// CreateUser must be atomic with respect to concurrent creates and
// return model.ErrUserExists when either value is taken.
type UserStore interface {
	// CreateUser inserts the user and returns its newly assigned id.
	// The ID field of the argument is ignored.
	CreateUser(ctx context.Context, user *model.User) (model.UserID, error)

	// GetUserByEmail returns model.ErrUserNotFound when no record matches
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// FindUserByUsernameOrEmail returns any record whose username or email
	// matches, or model.ErrUserNotFound
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}
