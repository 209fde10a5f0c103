package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultHashCost is the bcrypt cost used for new password hashes
const DefaultHashCost = 10

// maxPasswordBytes is the most input bcrypt uses. Longer passwords are
// truncated to it on both hash and compare.
const maxPasswordBytes = 72

// HasherConfig holds configuration for password hashing
type HasherConfig struct {
	// Cost is the bcrypt cost factor
	Cost int
	// MaxConcurrent caps simultaneous hash and compare operations.
	// Zero means GOMAXPROCS.
	MaxConcurrent int
}

// DefaultHasherConfig returns the production hashing configuration
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Cost: DefaultHashCost,
	}
}

// Hasher runs bcrypt under a fixed concurrency budget so a burst of
// registrations or logins queues instead of saturating every CPU.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher creates a Hasher
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultHashCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cfg.Cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	return &Hasher{
		cost: cfg.Cost,
		sem:  semaphore.NewWeighted(int64(limit)),
	}, nil
}

// Hash derives a salted bcrypt hash of password
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks password against hash.
// It returns bcrypt.ErrMismatchedHashAndPassword on mismatch.
func (h *Hasher) Compare(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
