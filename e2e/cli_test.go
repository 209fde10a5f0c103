package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/taskauth/internal/api"
	"github.com/mcoot/taskauth/internal/factory"
	"github.com/mcoot/taskauth/internal/services/auth"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "taskauth-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/taskauth")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "TASKAUTH_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the API on a free local port until the test ends
func startTestServer(t *testing.T) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(context.Background(), factory.Config{
		Logger:   logger,
		Hasher:   auth.HasherConfig{Cost: 4},
		Sessions: auth.SessionsConfig{Secret: []byte("e2e-secret")},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Credentials: app.Credentials,
		Sessions:    app.Sessions,
		Store:       app.Store,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = "127.0.0.1"
	serverCfg.Port = port
	server := api.NewServer(router, serverCfg, logger)

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
		_ = app.Close()
	})

	serverURL := "http://127.0.0.1:" + strconv.Itoa(port)
	waitForServer(t, serverURL+"/api/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type claimResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func TestCLISessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	// health
	out, err := cli.run("health")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"status": "ok"`)

	// register does not log in
	out, err = cli.run("register", "--username", "alice", "--email", "alice@example.com", "--password", "secret123")
	require.NoError(t, err, out)
	var reg registerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &reg))
	assert.Equal(t, "User created successfully", reg.Message)
	assert.NoFileExists(t, cli.tokenFile)

	// me before login
	out, err = cli.run("me")
	require.Error(t, err)
	assert.Contains(t, out, "not logged in")

	// login stores the token
	out, err = cli.run("login", "--email", "alice@example.com", "--password", "secret123")
	require.NoError(t, err, out)
	var login loginResponse
	require.NoError(t, json.Unmarshal([]byte(out), &login))
	assert.Equal(t, reg.UserID, login.User.ID)

	stored, err := os.ReadFile(cli.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, login.Token, string(stored))

	info, err := os.Stat(cli.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// me with the stored token
	out, err = cli.run("me")
	require.NoError(t, err, out)
	var claim claimResponse
	require.NoError(t, json.Unmarshal([]byte(out), &claim))
	assert.Equal(t, "alice", claim.Username)
	assert.Equal(t, "alice@example.com", claim.Email)

	// logout discards it
	out, err = cli.run("logout")
	require.NoError(t, err, out)
	assert.NoFileExists(t, cli.tokenFile)
}

func TestCLIRejectedTokenForcesLogout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	require.NoError(t, os.WriteFile(cli.tokenFile, []byte("forged.token.value"), 0600))

	out, err := cli.run("me")
	require.Error(t, err)
	assert.Contains(t, out, "session ended")
	assert.NoFileExists(t, cli.tokenFile)
}

func TestCLIBadLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	out, err := cli.run("login", "--email", "nobody@example.com", "--password", "secret123")
	require.Error(t, err)
	assert.True(t, strings.Contains(out, "Invalid credentials"), out)
	assert.NoFileExists(t, cli.tokenFile)
}
