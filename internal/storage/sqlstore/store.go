// Package sqlstore implements storage.UserStore on database/sql for
// PostgreSQL (pgx) and SQLite (modernc). Uniqueness of username and
// email is enforced by the schema; the store maps each driver's
// constraint error to model.ErrUserExists.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mcoot/taskauth/internal/model"
	"github.com/mcoot/taskauth/internal/storage"
)

const (
	insertUserQuery = `INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`

	selectUserByEmailQuery = `SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = ?`

	selectUserByUsernameOrEmailQuery = `SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = ? OR email = ?
		ORDER BY id
		LIMIT 1`
)

// Store is a SQL-backed UserStore
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure Store implements the interface
var _ storage.UserStore = (*Store)(nil)

// Config selects the SQL backend
type Config struct {
	// Dialect is "postgres" or "sqlite"
	Dialect string
	// DSN is passed to the driver. For sqlite this is a file path or URI.
	DSN string
}

// Open connects, verifies the connection and applies migrations
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := DialectByName(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// SQLite allows one writer; a single connection turns lock contention
	// into queueing instead of SQLITE_BUSY errors.
	if d.Name == SQLite.Name {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return New(db, d), nil
}

// New wraps an already migrated database
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) (model.UserID, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(insertUserQuery),
		user.Username, user.Email, user.PasswordHash, user.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return 0, model.ErrUserExists
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return model.UserID(id), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(selectUserByEmailQuery), email)
	return scanUser(row)
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(selectUserByUsernameOrEmailQuery), username, email)
	return scanUser(row)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		id        int64
		createdAt timestamp
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.ID = model.UserID(id)
	u.CreatedAt = createdAt.Time
	return &u, nil
}
