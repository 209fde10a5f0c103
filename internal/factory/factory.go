package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/taskauth/internal/config"
	"github.com/mcoot/taskauth/internal/dependencies/clock"
	"github.com/mcoot/taskauth/internal/services/auth"
	"github.com/mcoot/taskauth/internal/storage"
	"github.com/mcoot/taskauth/internal/storage/memory"
	redisstorage "github.com/mcoot/taskauth/internal/storage/redis"
	"github.com/mcoot/taskauth/internal/storage/sqlstore"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.UserStore

	// External dependencies
	Clock clock.Clock

	// Services
	Hasher      *auth.Hasher
	Credentials *auth.Credentials
	Sessions    *auth.Sessions

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the user store backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the DSN for the sqlite and postgres backends
	DatabaseURL string
	// Hasher configures password hashing
	// If zero value, defaults to auth.DefaultHasherConfig()
	Hasher auth.HasherConfig
	// Sessions configures token issuance. Secret is required.
	Sessions auth.SessionsConfig
}

// ConfigFrom builds a factory Config from the server configuration
func ConfigFrom(c config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:      logger,
		StorageType: c.StorageType,
		DatabaseURL: c.DatabaseURL,
		Hasher: auth.HasherConfig{
			Cost:          c.BcryptCost,
			MaxConcurrent: c.HashConcurrency,
		},
		Sessions: auth.SessionsConfig{
			Secret:   []byte(c.JWTSecret),
			TokenTTL: c.TokenTTL,
		},
	}

	if c.StorageType == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hasherCfg := cfg.Hasher
	if hasherCfg.Cost == 0 {
		hasherCfg.Cost = auth.DefaultHasherConfig().Cost
	}

	app, err := newWithDependencies(store, clock.New(), hasherCfg, cfg.Sessions, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func openStore(ctx context.Context, cfg Config) (storage.UserStore, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageMemory
	}

	switch storageType {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StorageSQLite, config.StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DatabaseURL required when StorageType is %s", storageType)
		}
		return sqlstore.Open(ctx, sqlstore.Config{Dialect: storageType, DSN: cfg.DatabaseURL})
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be memory, redis, sqlite or postgres", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.UserStore, clk clock.Clock, hasherCfg auth.HasherConfig, sessionsCfg auth.SessionsConfig, logger *slog.Logger) (*App, error) {
	hasher, err := auth.NewHasher(hasherCfg)
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}

	sessions, err := auth.NewSessions(sessionsCfg, clk)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}

	return &App{
		Store:       store,
		Clock:       clk,
		Hasher:      hasher,
		Credentials: auth.NewCredentials(store, hasher, clk, logger),
		Sessions:    sessions,
		Logger:      logger,
	}, nil
}

// Close releases the user store
func (a *App) Close() error {
	return a.Store.Close()
}
