package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/storage"
)

// createUserScript checks both indexes, allocates an id and writes the
// record and its indexes in one atomic step. It returns 0 when the
// username or email is taken; allocated ids start at 1.
//
// KEYS: username index, email index, id sequence
// ARGV: user key prefix, username, email, password hash, created_at
var createUserScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
local id = redis.call('INCR', KEYS[3])
redis.call('HSET', ARGV[1] .. id,
	'id', id,
	'username', ARGV[2],
	'email', ARGV[3],
	'password_hash', ARGV[4],
	'created_at', ARGV[5])
redis.call('SET', KEYS[1], id)
redis.call('SET', KEYS[2], id)
return id
`)

// userHash is the field layout of a user HASH
type userHash struct {
	ID           int64  `redis:"id"`
	Username     string `redis:"username"`
	Email        string `redis:"email"`
	PasswordHash string `redis:"password_hash"`
	CreatedAt    string `redis:"created_at"`
}

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.UserStore = (*Storage)(nil)

func (s *Storage) CreateUser(ctx context.Context, user *model.User) (model.UserID, error) {
	keys := []string{
		usernameIndexKey(user.Username),
		emailIndexKey(user.Email),
		userSequenceKey(),
	}
	id, err := createUserScript.Run(ctx, s.client, keys,
		userKeyPrefix(),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	if id == 0 {
		return 0, model.ErrUserExists
	}
	return model.UserID(id), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.lookupIndex(ctx, emailIndexKey(email))
	if err != nil {
		return nil, err
	}
	return s.getUser(ctx, id)
}

func (s *Storage) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	id, err := s.lookupIndex(ctx, usernameIndexKey(username))
	if errors.Is(err, model.ErrUserNotFound) {
		id, err = s.lookupIndex(ctx, emailIndexKey(email))
	}
	if err != nil {
		return nil, err
	}
	return s.getUser(ctx, id)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) lookupIndex(ctx context.Context, key string) (model.UserID, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrUserNotFound
		}
		return 0, fmt.Errorf("read index %s: %w", key, err)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt index %s: %w", key, err)
	}
	return model.UserID(id), nil
}

func (s *Storage) getUser(ctx context.Context, id model.UserID) (*model.User, error) {
	res := s.client.HGetAll(ctx, userKey(id))
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("read user %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, model.ErrUserNotFound
	}

	var h userHash
	if err := res.Scan(&h); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", id, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode user %d created_at: %w", id, err)
	}

	return &model.User{
		ID:           model.UserID(h.ID),
		Username:     h.Username,
		Email:        h.Email,
		PasswordHash: h.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}
