package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/taskauth/internal/dependencies/clock"
	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/storage"
)

// Credentials registers users and checks their passwords
type Credentials struct {
	store  storage.UserStore
	hasher *Hasher
	clock  clock.Clock
	logger *slog.Logger

	// dummyHash is compared against when the email is unknown so a
	// failed lookup costs the same as a wrong password
	dummyHash func() (string, error)
}

// NewCredentials creates a Credentials component
func NewCredentials(store storage.UserStore, hasher *Hasher, clock clock.Clock, logger *slog.Logger) *Credentials {
	c := &Credentials{
		store:  store,
		hasher: hasher,
		clock:  clock,
		logger: logger,
	}
	c.dummyHash = sync.OnceValues(func() (string, error) {
		b := make([]byte, 18)
		_, _ = rand.Read(b)
		return hasher.Hash(context.Background(), base64.RawURLEncoding.EncodeToString(b))
	})
	return c
}

// Register creates a user and returns its id. It does not log the user in.
func (c *Credentials) Register(ctx context.Context, username, email, password string) (model.UserID, error) {
	if err := (registration{Username: username, Email: email, Password: password}).validate(); err != nil {
		return 0, err
	}

	// The pre-check gives a fast answer for the common case; the store's
	// uniqueness constraint is what actually decides a concurrent race.
	_, err := c.store.FindUserByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return 0, ErrConflict
	case !errors.Is(err, model.ErrUserNotFound):
		c.logger.ErrorContext(ctx, "registration lookup failed", slog.String("error", err.Error()))
		return 0, ErrStore
	}

	hash, err := c.hasher.Hash(ctx, password)
	if err != nil {
		return 0, err
	}

	id, err := c.store.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    c.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return 0, ErrConflict
		}
		c.logger.ErrorContext(ctx, "user insert failed", slog.String("error", err.Error()))
		return 0, ErrStore
	}

	c.logger.InfoContext(ctx, "user registered", slog.Int64("user_id", int64(id)))
	return id, nil
}

// Authenticate returns the user whose email and password match.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (c *Credentials) Authenticate(ctx context.Context, email, password string) (model.PublicUser, error) {
	if err := (login{Email: email, Password: password}).validate(); err != nil {
		return model.PublicUser{}, err
	}

	user, err := c.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			c.burnCompare(ctx, password)
			return model.PublicUser{}, ErrInvalidCredentials
		}
		c.logger.ErrorContext(ctx, "login lookup failed", slog.String("error", err.Error()))
		return model.PublicUser{}, ErrStore
	}

	if err := c.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return model.PublicUser{}, ErrInvalidCredentials
		}
		if ctx.Err() != nil {
			return model.PublicUser{}, err
		}
		c.logger.ErrorContext(ctx, "stored password hash unusable",
			slog.Int64("user_id", int64(user.ID)),
			slog.String("error", err.Error()),
		)
		return model.PublicUser{}, ErrStore
	}

	return user.Public(), nil
}

func (c *Credentials) burnCompare(ctx context.Context, password string) {
	hash, err := c.dummyHash()
	if err != nil {
		return
	}
	_ = c.hasher.Compare(ctx, hash, password)
}
