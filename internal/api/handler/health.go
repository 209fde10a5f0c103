package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/taskauth/internal/api/apierr"
	"github.com/mcoot/taskauth/internal/api/response"
	"github.com/mcoot/taskauth/internal/storage"
)

const pingTimeout = 2 * time.Second

// HealthHandler reports whether the server can reach its user store
type HealthHandler struct {
	store  storage.UserStore
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.UserStore, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "user store ping failed", slog.String("error", err.Error()))
		apierr.WriteError(w, apierr.NewUnavailableError())
		return
	}

	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Storage: "ok"})
}
