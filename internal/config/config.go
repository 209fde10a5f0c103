package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// DevSecret is the signing secret used when none is configured. It is
// only fit for local development.
const DevSecret = "dev-secret-change-in-production"

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	StorageType string
	RedisURL    string
	// DatabaseURL is a postgres connection URL or a sqlite file path
	DatabaseURL string

	JWTSecret       string
	TokenTTL        time.Duration
	BcryptCost      int
	HashConcurrency int

	LogLevel string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:        3001,
		StorageType: StorageMemory,
		JWTSecret:   DevSecret,
		TokenTTL:    24 * time.Hour,
		BcryptCost:  bcrypt.DefaultCost,
		LogLevel:    "info",
	}
}

// LookupFunc reads an environment variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// Load returns the defaults overlaid with any environment variables set
func Load(lookup LookupFunc) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("TASKAUTH_HOST", &cfg.Host)
	str("STORAGE_TYPE", &cfg.StorageType)
	str("REDIS_URL", &cfg.RedisURL)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("LOG_LEVEL", &cfg.LogLevel)

	var errs []error
	errs = append(errs,
		num("PORT", &cfg.Port),
		num("BCRYPT_COST", &cfg.BcryptCost),
		num("HASH_CONCURRENCY", &cfg.HashConcurrency),
	)

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags binds command-line flags to the config fields, using the
// current values as flag defaults
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "interface to listen on")
	fs.IntVar(&c.Port, "port", c.Port, "port to listen on")
	fs.StringVar(&c.StorageType, "storage", c.StorageType, "user store backend: memory, redis, sqlite or postgres")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis connection URL")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "postgres URL or sqlite file path")
	fs.DurationVar(&c.TokenTTL, "token-ttl", c.TokenTTL, "lifetime of issued tokens")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "bcrypt cost factor")
	fs.IntVar(&c.HashConcurrency, "hash-concurrency", c.HashConcurrency, "max concurrent password hashes (0 = GOMAXPROCS)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Validate checks that the config can be used to start the server
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when storage is redis"))
		}
	case StorageSQLite, StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL required when storage is %s", c.StorageType))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q", c.StorageType))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost %d outside [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.HashConcurrency < 0 {
		errs = append(errs, errors.New("hash concurrency must not be negative"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level returns the parsed log level
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// UsingDevSecret reports whether tokens would be signed with DevSecret
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == DevSecret
}
