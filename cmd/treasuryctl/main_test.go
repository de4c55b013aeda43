package main

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/repository/memory"
	"github.com/noah-isme/treasury-api/internal/server"
	"github.com/noah-isme/treasury-api/internal/service"
)

type harness struct {
	t          *testing.T
	url        string
	sessionDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app := server.Build(server.Dependencies{
		Store:   memory.NewStore(memory.Options{Seed: true}),
		Metrics: service.NewMetricsService(),
		Auth: service.AuthConfig{
			AccessTokenSecret:  "ctl-test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
			Issuer:             "treasury-api",
		},
		AuthzTTL: time.Minute,
	})
	ts := httptest.NewServer(server.NewRouter(app.Services, server.Options{APIPrefix: "/api/v1"}))
	t.Cleanup(ts.Close)
	return &harness{t: t, url: ts.URL + "/api/v1", sessionDir: t.TempDir()}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--server", h.url, "--session-dir", h.sessionDir}, args...)
	code := run(full, &stdout, &stderr, func(string) string { return "" })
	return code, stdout.String(), stderr.String()
}

func TestViewerSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	code, out, errOut := h.run("-p", memory.SeedPassword, "login", "f.traore@cie.ci")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "logged in as Fatou Traoré")

	code, out, _ = h.run("can", "reporting", "view")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "allowed: reporting:view")

	code, out, _ = h.run("can", "users", "view")
	assert.Equal(t, exitDenied, code)
	assert.Contains(t, out, "denied: users:view")

	code, out, _ = h.run("whoami")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Lecteur")
	assert.Contains(t, out, "dashboard")

	code, out, _ = h.run("refresh")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "session refreshed")

	code, _, _ = h.run("logout")
	assert.Equal(t, exitOK, code)

	code, _, errOut = h.run("can", "reporting", "view")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "not logged in")
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("-p", "wrong-password", "login", "admin@cie.ci")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "error:")

	code, _, errOut = h.run("whoami")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "not logged in")
}

func TestCanRejectsUnknownTags(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("can", "treasury", "view")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "unknown resource")

	code, _, errOut = h.run("can", "plan", "approve")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "unknown action")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run("frobnicate")
	assert.Equal(t, exitError, code)
	assert.Contains(t, errOut, "unknown command")
}
