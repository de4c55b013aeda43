package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/repository/memory"
	"github.com/noah-isme/treasury-api/internal/service"
	"github.com/noah-isme/treasury-api/pkg/jobs"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *struct{ Code string } `json:"error"`
	Pagination *struct{ Total int }   `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	app    *App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app := Build(Dependencies{
		Store:   memory.NewStore(memory.Options{Seed: true}),
		Metrics: service.NewMetricsService(),
		Auth: service.AuthConfig{
			AccessTokenSecret:  "router-test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
			Issuer:             "treasury-api",
		},
		AuthzTTL:     time.Minute,
		DashboardTTL: time.Minute,
		ImportQueue:  jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond},
	})
	ctx, cancel := context.WithCancel(context.Background())
	app.ImportQueue.Start(ctx)
	t.Cleanup(func() {
		app.ImportQueue.Stop()
		cancel()
	})
	router := NewRouter(app.Services, Options{APIPrefix: "/api"})
	return &testServer{t: t, router: router, app: app}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": memory.SeedPassword})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res.AccessToken
}

func TestProbesAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := srv.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = srv.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := srv.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestSecuredRoutesNeedToken(t *testing.T) {
	srv := newTestServer(t)

	rec, env := srv.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	rec, _ = srv.do(http.MethodGet, "/api/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestViewerSeesOnlyGrantedSections(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login("f.traore@cie.ci")

	rec, env := srv.do(http.MethodGet, "/api/auth/me/permissions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		ProfileName string `json:"profile_name"`
		IsAdmin     bool   `json:"is_admin"`
		Navigation  []struct {
			Resource string `json:"resource"`
		} `json:"navigation"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "Lecteur", summary.ProfileName)
	assert.False(t, summary.IsAdmin)
	require.Len(t, summary.Navigation, 3)
	assert.Equal(t, "dashboard", summary.Navigation[0].Resource)

	rec, env = srv.do(http.MethodGet, "/api/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, env.Meta["cache_hit"])

	rec, env = srv.do(http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, _ = srv.do(http.MethodPost, "/api/entries", token, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRevokedGrantTakesEffectImmediately(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin@cie.ci")
	viewer := srv.login("f.traore@cie.ci")

	rec, _ := srv.do(http.MethodGet, "/api/reports?from=2024-01-01&to=2024-03-31", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := srv.do(http.MethodPut, "/api/profiles/"+memory.SeedViewerProfileID+"/permissions", admin,
		map[string]interface{}{"resource": "reporting", "action": "view", "granted": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, 2, profile.Version)

	rec, _ = srv.do(http.MethodGet, "/api/reports?from=2024-01-01&to=2024-03-31", viewer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = srv.do(http.MethodGet, "/api/audit-logs?action=REPORT_GENERATE", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Pagination.Total)
}

func TestAdminManagesProfilesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin@cie.ci")

	rec, env := srv.do(http.MethodPost, "/api/profiles", admin, map[string]string{"name": "Auditeur"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, _ = srv.do(http.MethodPost, "/api/profiles", admin, map[string]string{"name": "auditeur"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = srv.do(http.MethodPut, "/api/profiles/"+created.ID, admin, map[string]interface{}{"description": "x", "expected_version": 7})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = srv.do(http.MethodDelete, "/api/profiles/"+memory.SeedAdminProfileID, admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "BUSINESS_RULE", env.Error.Code)

	rec, _ = srv.do(http.MethodDelete, "/api/profiles/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = srv.do(http.MethodGet, "/api/profiles/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportRunsThroughQueue(t *testing.T) {
	srv := newTestServer(t)
	analyst := srv.login("a.kone@cie.ci")

	rec, env := srv.do(http.MethodPost, "/api/imports", analyst, map[string]interface{}{
		"file_name": "juillet.csv",
		"plan_id":   memory.SeedPlanID,
		"rows": []map[string]interface{}{{
			"date":          time.Now().UTC().Format("2006-01-02"),
			"category_code": "ENC-SUBV",
			"direction":     "inflow",
			"amount":        1_000_000,
			"description":   "Subvention",
		}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var batch struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.Equal(t, "pending", batch.Status)

	require.Eventually(t, func() bool {
		_, env := srv.do(http.MethodGet, "/api/imports/"+batch.ID, analyst, nil)
		var got struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(env.Data, &got)
		return got.Status == "completed"
	}, 2*time.Second, 10*time.Millisecond)
}
