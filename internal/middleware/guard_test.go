package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	"github.com/noah-isme/treasury-api/internal/service"
)

type loaderFunc func(ctx context.Context, id string) (*models.User, error)

func (f loaderFunc) FindByID(ctx context.Context, id string) (*models.User, error) { return f(ctx, id) }

func guardRouter(userID string, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: userID})
		}
		c.Next()
	})
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/probe", handlers...)
	return r
}

func newGuard(store *repository.Store, users accountLoader) *Guard {
	authz := service.NewAuthorizationService(store.Profiles, nil, nil, time.Minute, nil)
	return NewGuard(authz, users, nil)
}

func probe(r *gin.Engine) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	return rec
}

func TestRequirePermissionFollowsProfileGrants(t *testing.T) {
	store := memory.NewStore(memory.Options{Seed: true})
	guard := newGuard(store, store.Users)

	viewerDashboard := guardRouter(memory.SeedViewerUserID, guard.RequireView(models.ResourceDashboard))
	assert.Equal(t, http.StatusNoContent, probe(viewerDashboard).Code)

	viewerUsers := guardRouter(memory.SeedViewerUserID, guard.RequireView(models.ResourceUsers))
	rec := probe(viewerUsers)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")

	adminDelete := guardRouter(memory.SeedAdminUserID, guard.RequirePermission(models.ResourceProfiles, models.ActionDelete))
	assert.Equal(t, http.StatusNoContent, probe(adminDelete).Code)
}

func TestRequirePermissionIgnoresRoleLabel(t *testing.T) {
	store := memory.NewStore(memory.Options{Seed: true})
	ctx := context.Background()
	admin, err := store.Users.FindByID(ctx, memory.SeedAdminUserID)
	require.NoError(t, err)
	admin.ProfileID = memory.SeedViewerProfileID
	_, err = store.Users.Update(ctx, admin)
	require.NoError(t, err)

	guard := newGuard(store, store.Users)
	r := guardRouter(memory.SeedAdminUserID, guard.RequireView(models.ResourceUsers))
	assert.Equal(t, http.StatusForbidden, probe(r).Code)
}

func TestGuardRejectsUnknownAndInactiveAccounts(t *testing.T) {
	store := memory.NewStore(memory.Options{Seed: true})
	guard := newGuard(store, store.Users)

	assert.Equal(t, http.StatusUnauthorized, probe(guardRouter("", guard.Authenticated())).Code)
	assert.Equal(t, http.StatusUnauthorized, probe(guardRouter("ghost", guard.Authenticated())).Code)

	ctx := context.Background()
	viewer, err := store.Users.FindByID(ctx, memory.SeedViewerUserID)
	require.NoError(t, err)
	viewer.Status = models.UserStatusInactive
	_, err = store.Users.Update(ctx, viewer)
	require.NoError(t, err)
	rec := probe(guardRouter(memory.SeedViewerUserID, guard.RequireView(models.ResourceDashboard)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCOUNT_INACTIVE")
}

func TestGuardFailsClosedOnLookupError(t *testing.T) {
	store := memory.NewStore(memory.Options{Seed: true})
	broken := loaderFunc(func(context.Context, string) (*models.User, error) { return nil, errors.New("db down") })
	guard := newGuard(store, broken)

	rec := probe(guardRouter(memory.SeedAdminUserID, guard.RequireView(models.ResourceDashboard)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardCachesAccountAcrossChain(t *testing.T) {
	store := memory.NewStore(memory.Options{Seed: true})
	calls := 0
	counting := loaderFunc(func(ctx context.Context, id string) (*models.User, error) {
		calls++
		return store.Users.FindByID(ctx, id)
	})
	guard := newGuard(store, counting)

	var seen *models.User
	r := guardRouter(memory.SeedAnalystUserID,
		guard.RequireView(models.ResourceSaisie),
		guard.RequirePermission(models.ResourceSaisie, models.ActionCreate),
		func(c *gin.Context) { seen = CurrentAccount(c); c.Next() },
	)
	assert.Equal(t, http.StatusNoContent, probe(r).Code)
	assert.Equal(t, 1, calls)
	require.NotNil(t, seen)
	assert.Equal(t, memory.SeedAnalystUserID, seen.ID)
}
