package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/taskauth/internal/api/apierr"
	"github.com/mcoot/taskauth/internal/api/handler"
	"github.com/mcoot/taskauth/internal/api/middleware"
	reqmiddleware "github.com/mcoot/taskauth/internal/middleware"
	"github.com/mcoot/taskauth/internal/services/auth"
	"github.com/mcoot/taskauth/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Credentials *auth.Credentials
	Sessions    *auth.Sessions
	Store       storage.UserStore
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.Credentials, cfg.Sessions, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Store, cfg.Logger)

	// Create middleware
	requireAuth := middleware.RequireAuth(cfg.Sessions)
	loggingMiddleware := reqmiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes (no token required)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Protected auth routes, wrapped per route: an /auth subrouter would
	// turn method mismatches on the routes above into 404s
	api.Handle("/auth/me", requireAuth(http.HandlerFunc(authHandler.Me))).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	return r
}
