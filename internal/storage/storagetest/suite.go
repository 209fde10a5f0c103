// Package storagetest holds behaviour tests shared by every UserStore
// backend. Backends embed UserStoreSuite and set NewStore.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/storage"
)

// UserStoreSuite runs the UserStore contract against a fresh store per test
type UserStoreSuite struct {
	suite.Suite

	// NewStore returns an empty store. It is called once per test.
	NewStore func() storage.UserStore

	Store storage.UserStore
	Ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.Require().NotNil(s.NewStore, "NewStore must be set")
	s.Store = s.NewStore()
	s.Ctx = context.Background()
}

func (s *UserStoreSuite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func newUser(username, email string) *model.User {
	return &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$not-a-real-hash",
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *UserStoreSuite) TestCreateAndGetByEmail() {
	id, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)
	s.Positive(int64(id))

	got, err := s.Store.GetUserByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(id, got.ID)
	s.Equal("alice", got.Username)
	s.Equal("alice@example.com", got.Email)
	s.Equal("$2a$04$not-a-real-hash", got.PasswordHash)
	s.True(got.CreatedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)), "created_at round-trips: %v", got.CreatedAt)
}

func (s *UserStoreSuite) TestGetByEmailNotFound() {
	_, err := s.Store.GetUserByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *UserStoreSuite) TestIDsAreMonotonic() {
	first, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)
	second, err := s.Store.CreateUser(s.Ctx, newUser("bob", "bob@example.com"))
	s.Require().NoError(err)

	s.Greater(int64(second), int64(first))
}

func (s *UserStoreSuite) TestFailedCreateDoesNotReuseIDs() {
	first, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)

	_, err = s.Store.CreateUser(s.Ctx, newUser("alice", "other@example.com"))
	s.Require().ErrorIs(err, model.ErrUserExists)

	second, err := s.Store.CreateUser(s.Ctx, newUser("bob", "bob@example.com"))
	s.Require().NoError(err)
	s.Greater(int64(second), int64(first))
}

func (s *UserStoreSuite) TestDuplicateUsernameRejected() {
	_, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)

	_, err = s.Store.CreateUser(s.Ctx, newUser("alice", "different@example.com"))
	s.ErrorIs(err, model.ErrUserExists)

	_, err = s.Store.GetUserByEmail(s.Ctx, "different@example.com")
	s.ErrorIs(err, model.ErrUserNotFound, "rejected create must not leave a record")
}

func (s *UserStoreSuite) TestDuplicateEmailRejected() {
	_, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)

	_, err = s.Store.CreateUser(s.Ctx, newUser("alice2", "alice@example.com"))
	s.ErrorIs(err, model.ErrUserExists)

	got, err := s.Store.GetUserByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
}

func (s *UserStoreSuite) TestFindByUsernameOrEmail() {
	id, err := s.Store.CreateUser(s.Ctx, newUser("alice", "alice@example.com"))
	s.Require().NoError(err)

	byUsername, err := s.Store.FindUserByUsernameOrEmail(s.Ctx, "alice", "x@example.com")
	s.Require().NoError(err)
	s.Equal(id, byUsername.ID)

	byEmail, err := s.Store.FindUserByUsernameOrEmail(s.Ctx, "someone", "alice@example.com")
	s.Require().NoError(err)
	s.Equal(id, byEmail.ID)

	_, err = s.Store.FindUserByUsernameOrEmail(s.Ctx, "bob", "bob@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *UserStoreSuite) TestConcurrentDuplicateEmailAtMostOneWins() {
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Store.CreateUser(s.Ctx, newUser(fmt.Sprintf("user%d", i), "same@example.com"))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrUserExists)
	}
	s.Equal(1, succeeded)
}

func (s *UserStoreSuite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}
