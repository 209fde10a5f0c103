package factory

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/taskauth/internal/dependencies/mocks"
	"github.com/mcoot/taskauth/internal/services/auth"
	"github.com/mcoot/taskauth/internal/storage/memory"
)

// TestSecret signs tokens issued by a TestApp
const TestSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Memory    *memory.Storage
}

// NewTestApp creates an App configured for testing with a memory store,
// a mock clock and the cheapest bcrypt cost
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	sessionsCfg := auth.DefaultSessionsConfig()
	sessionsCfg.Secret = []byte(TestSecret)

	app, err := newWithDependencies(
		store,
		mockClock,
		auth.HasherConfig{Cost: bcrypt.MinCost, MaxConcurrent: 4},
		sessionsCfg,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Memory:    store,
	}
}
