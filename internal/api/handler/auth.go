package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/taskauth/internal/api/apierr"
	"github.com/mcoot/taskauth/internal/api/middleware"
	"github.com/mcoot/taskauth/internal/api/request"
	"github.com/mcoot/taskauth/internal/api/response"
	"github.com/mcoot/taskauth/internal/services/auth"
)

// maxBodyBytes bounds request bodies on the auth endpoints
const maxBodyBytes = 1 << 20

// AuthHandler handles registration, login and current-user endpoints
type AuthHandler struct {
	credentials *auth.Credentials
	sessions    *auth.Sessions
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(credentials *auth.Credentials, sessions *auth.Sessions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		sessions:    sessions,
		logger:      logger,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	id, err := h.credentials.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponse{
		Message: "User created successfully",
		UserID:  int64(id),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to sign token",
			slog.Int64("user_id", int64(user.ID)),
			slog.String("error", err.Error()),
		)
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", slog.Int64("user_id", int64(user.ID)))
	response.JSON(w, http.StatusOK, response.LoginResponseFromToken(token))
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claim := middleware.MustClaim(r.Context())
	response.JSON(w, http.StatusOK, response.MeResponse{User: response.ClaimFromAuth(claim)})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}
