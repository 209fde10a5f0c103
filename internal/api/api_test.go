package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/taskauth/internal/api"
	"github.com/mcoot/taskauth/internal/api/apierr"
	"github.com/mcoot/taskauth/internal/api/response"
	"github.com/mcoot/taskauth/internal/factory"
	"github.com/mcoot/taskauth/internal/storage"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	app := factory.NewTestApp()
	return newTestServerWithStore(t, app, app.Store)
}

func newTestServerWithStore(t *testing.T, app *factory.TestApp, store storage.UserStore) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Credentials: app.Credentials,
		Sessions:    app.Sessions,
		Store:       store,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, username, email, password string) int64 {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.UserID
}

func (ts *testServer) login(t *testing.T, email, password string) response.LoginResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()

	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

type unreachableStore struct {
	storage.UserStore
}

func (unreachableStore) Ping(context.Context) error {
	return errors.New("dial tcp: connection refused")
}

func TestHealthCheckStoreDown(t *testing.T) {
	app := factory.NewTestApp()
	ts := newTestServerWithStore(t, app, unreachableStore{app.Store})

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "User created successfully", resp["message"])
	assert.EqualValues(t, 1, resp["userId"])
}

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	ts := newTestServer(t)

	first := ts.register(t, "alice", "alice@example.com", "secret123")
	second := ts.register(t, "bob", "bob@example.com", "secret123")
	assert.Greater(t, second, first)
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret123")

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same email", "alice2", "alice@example.com"},
		{"same username", "alice", "other@example.com"},
		{"same both", "alice", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/auth/register", map[string]string{
				"username": tt.username,
				"email":    tt.email,
				"password": "secret123",
			}, "")

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, apierr.CodeUserExists, apiErr.Code)
			assert.Equal(t, "User already exists", apiErr.Message)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"missing username", map[string]string{"email": "a@example.com", "password": "secret123"}, "All fields are required"},
		{"missing email", map[string]string{"username": "a", "password": "secret123"}, "All fields are required"},
		{"missing password", map[string]string{"username": "a", "email": "a@example.com"}, "All fields are required"},
		{"short password", map[string]string{"username": "a", "email": "a@example.com", "password": "12345"}, "Password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/auth/register", tt.body, "")

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			apiErr := decodeError(t, rr)
			assert.Equal(t, apierr.CodeValidation, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestRegisterSixCharacterPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "123456")
}

func TestRegisterInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "alice", "alice@example.com", "secret123")

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	var resp response.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, response.User{ID: id, Username: "alice", Email: "alice@example.com"}, resp.User)
	assert.True(t, resp.ExpiresAt.Equal(ts.app.MockClock.Now().Add(24*time.Hour)))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret123")

	wrongPassword := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	unknownEmail := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, wrongPassword).Code)
}

func TestLoginMissingFields(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email and password are required", decodeError(t, rr).Message)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "alice", "alice@example.com", "secret123")
	login := ts.login(t, "alice@example.com", "secret123")

	rr := ts.request(http.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.True(t, resp.User.IssuedAt.Equal(ts.app.MockClock.Now()))
	assert.True(t, resp.User.ExpiresAt.Equal(login.ExpiresAt))
}

func TestMeWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	apiErr := decodeError(t, rr)
	assert.Equal(t, apierr.CodeUnauthorized, apiErr.Code)
	assert.Equal(t, "No token provided", apiErr.Message)
}

func TestMeInvalidTokens(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice", "alice@example.com", "secret123")
	login := ts.login(t, "alice@example.com", "secret123")

	garbage := ts.request(http.MethodGet, "/api/auth/me", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, garbage.Code)
	assert.Equal(t, "Invalid token", decodeError(t, garbage).Message)

	ts.app.MockClock.Advance(24 * time.Hour)

	expired := ts.request(http.MethodGet, "/api/auth/me", nil, login.Token)
	assert.Equal(t, http.StatusUnauthorized, expired.Code)
	assert.Equal(t, garbage.Body.String(), expired.Body.String())
}

func TestMeWrongScheme(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", decodeError(t, rr).Message)
}

func TestMeIsStateless(t *testing.T) {
	issuer := newTestServer(t)
	issuer.register(t, "alice", "alice@example.com", "secret123")
	login := issuer.login(t, "alice@example.com", "secret123")

	// a second server with the same secret and an empty store still
	// accepts the token
	other := newTestServer(t)

	rr := other.request(http.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.User.Username)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/tasks", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decodeError(t, rr).Code)
}

func TestWrongMethod(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/login"},
		{http.MethodGet, "/api/auth/register"},
		{http.MethodPost, "/api/auth/me"},
		{http.MethodDelete, "/api/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			ts := newTestServer(t)

			rr := ts.request(tt.method, tt.path, nil, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, apierr.CodeMethodNotAllowed, decodeError(t, rr).Code)
		})
	}
}
