package memory

import (
	"context"
	"sync"

	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]*model.User
	usernameIndex map[string]model.UserID
	emailIndex    map[string]model.UserID
	lastID        model.UserID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		usernameIndex: make(map[string]model.UserID),
		emailIndex:    make(map[string]model.UserID),
	}
}

// Ensure Storage implements the interface
var _ storage.UserStore = (*Storage)(nil)

func (s *Storage) CreateUser(ctx context.Context, user *model.User) (model.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernameIndex[user.Username]; ok {
		return 0, model.ErrUserExists
	}
	if _, ok := s.emailIndex[user.Email]; ok {
		return 0, model.ErrUserExists
	}

	s.lastID++
	stored := *user
	stored.ID = s.lastID

	s.users[stored.ID] = &stored
	s.usernameIndex[stored.Username] = stored.ID
	s.emailIndex[stored.Email] = stored.ID

	return stored.ID, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.copyOf(id), nil
}

func (s *Storage) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.usernameIndex[username]; ok {
		return s.copyOf(id), nil
	}
	if id, ok := s.emailIndex[email]; ok {
		return s.copyOf(id), nil
	}
	return nil, model.ErrUserNotFound
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// copyOf returns a copy so callers cannot mutate stored records.
// Must be called with the lock held.
func (s *Storage) copyOf(id model.UserID) *model.User {
	u := *s.users[id]
	return &u
}
