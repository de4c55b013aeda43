package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/middleware"
	"github.com/noah-isme/treasury-api/internal/models"
)

type summaryFunc func(ctx context.Context, user *models.User) models.PermissionSummary

func (f summaryFunc) Summary(ctx context.Context, user *models.User) models.PermissionSummary {
	return f(ctx, user)
}

func TestPermissionsRequiresResolvedAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(nil, summaryFunc(func(context.Context, *models.User) models.PermissionSummary {
		t.Fatal("summary must not be computed without an account")
		return models.PermissionSummary{}
	}))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me/permissions", nil)
	h.Permissions(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissionsRendersSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	grants := models.NewGrants(models.Permissions{{Resource: models.ResourceDashboard, Actions: []models.Action{models.ActionView}}})
	h := NewAuthHandler(nil, summaryFunc(func(_ context.Context, user *models.User) models.PermissionSummary {
		return models.PermissionSummary{
			UserID:      user.ID,
			ProfileID:   user.ProfileID,
			Resolved:    true,
			Permissions: grants.Map(),
			Resources:   grants.Resources(),
			Navigation:  models.Navigation(grants),
		}
	}))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me/permissions", nil)
	c.Set(middleware.ContextAccountKey, &models.User{ID: "user-viewer", ProfileID: "profile-viewer"})
	h.Permissions(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.PermissionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Resolved)
	assert.Equal(t, []models.Action{models.ActionView}, envelope.Data.Permissions[models.ResourceDashboard])
	require.Len(t, envelope.Data.Navigation, 1)
	assert.Equal(t, "/dashboard", envelope.Data.Navigation[0].Path)
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	c.Request.Header.Set("Content-Type", "application/json")
	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
