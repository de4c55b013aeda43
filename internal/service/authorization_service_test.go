package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
)

func TestGrantsFailClosedWhenProfileMissing(t *testing.T) {
	store := seededStore(t)
	metrics := NewMetricsService()
	authz := NewAuthorizationService(store.Profiles, nil, metrics, time.Minute, nil)

	user := &models.User{ID: "u-1", ProfileID: "profile-ghost", Role: models.RoleAdmin}
	grants := authz.Grants(context.Background(), user)

	assert.Empty(t, grants)
	for _, r := range models.AllResources() {
		for _, a := range models.AllActions() {
			assert.False(t, authz.HasPermission(context.Background(), user, r, a), "%s:%s", r, a)
		}
	}
	assert.GreaterOrEqual(t, metrics.Snapshot().AuthzFailClosed, uint64(1))
}

func TestGrantsFailClosedOnStoreError(t *testing.T) {
	failing := profileReaderFunc(func(ctx context.Context, id string) (*models.Profile, error) {
		return nil, errors.New("connection reset")
	})
	authz := NewAuthorizationService(failing, nil, nil, time.Minute, nil)

	user := &models.User{ID: "u-1", ProfileID: memory.SeedAdminProfileID}
	assert.False(t, authz.CanView(context.Background(), user, models.ResourceDashboard))

	summary := authz.Summary(context.Background(), user)
	assert.False(t, summary.Resolved)
	assert.Empty(t, summary.Navigation)
}

func TestGrantsNilUser(t *testing.T) {
	authz := NewAuthorizationService(seededStore(t).Profiles, nil, nil, time.Minute, nil)
	assert.False(t, authz.CanView(context.Background(), nil, models.ResourceDashboard))
	assert.False(t, authz.IsAdmin(context.Background(), nil))
}

func TestAnalystGrants(t *testing.T) {
	store := seededStore(t)
	authz := NewAuthorizationService(store.Profiles, nil, nil, time.Minute, nil)
	analyst := seededUser(t, store, memory.SeedAnalystUserID)
	ctx := context.Background()

	assert.True(t, authz.CanView(ctx, analyst, models.ResourceSaisie))
	assert.True(t, authz.CanCreate(ctx, analyst, models.ResourceSaisie))
	assert.True(t, authz.CanEdit(ctx, analyst, models.ResourceSaisie))
	assert.False(t, authz.CanDelete(ctx, analyst, models.ResourceSaisie))
	assert.True(t, authz.CanExport(ctx, analyst, models.ResourceReporting))
	assert.False(t, authz.CanView(ctx, analyst, models.ResourceUsers))
	assert.False(t, authz.IsAdmin(ctx, analyst))
}

func TestIsAdminIsAdvisoryOnly(t *testing.T) {
	store := seededStore(t)
	authz := NewAuthorizationService(store.Profiles, nil, nil, time.Minute, nil)
	ctx := context.Background()

	labelled := seededUser(t, store, memory.SeedViewerUserID)
	labelled.Role = models.RoleAdmin
	assert.True(t, authz.IsAdmin(ctx, labelled))
	assert.False(t, authz.CanView(ctx, labelled, models.ResourceUsers))
	assert.False(t, authz.CanEdit(ctx, labelled, models.ResourceProfiles))

	profiles := NewProfileService(store.Profiles, store.Users, authz, nil, nil, nil)
	_, err := profiles.SetPermission(ctx, memory.SeedManagerProfileID, dto.SetPermissionRequest{Resource: "users", Action: "view", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)
	_, err = profiles.SetPermission(ctx, memory.SeedManagerProfileID, dto.SetPermissionRequest{Resource: "profiles", Action: "view", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)

	manager := seededUser(t, store, memory.SeedManagerUserID)
	assert.True(t, authz.IsAdmin(ctx, manager))
}

func TestSummaryForViewer(t *testing.T) {
	store := seededStore(t)
	authz := NewAuthorizationService(store.Profiles, nil, nil, time.Minute, nil)
	viewer := seededUser(t, store, memory.SeedViewerUserID)

	summary := authz.Summary(context.Background(), viewer)
	require.True(t, summary.Resolved)
	assert.Equal(t, "Lecteur", summary.ProfileName)
	assert.Equal(t, 1, summary.ProfileVersion)
	assert.Equal(t, []models.Action{models.ActionView}, summary.Permissions[models.ResourceDashboard])
	assert.False(t, summary.IsAdmin)

	var resources []models.Resource
	for _, item := range summary.Navigation {
		resources = append(resources, item.Resource)
	}
	assert.Equal(t, []models.Resource{models.ResourceDashboard, models.ResourceVisualization, models.ResourceReporting}, resources)
}

func TestGrantsCacheInvalidatedOnProfileChange(t *testing.T) {
	store := seededStore(t)
	cache := newFakeCache()
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(cache, metrics, time.Minute, nil, true)
	authz := NewAuthorizationService(store.Profiles, cacheSvc, metrics, time.Minute, nil)
	profiles := NewProfileService(store.Profiles, store.Users, authz, nil, nil, nil)
	viewer := seededUser(t, store, memory.SeedViewerUserID)
	ctx := context.Background()

	assert.False(t, authz.CanView(ctx, viewer, models.ResourceImports))
	assert.True(t, cache.has(grantsCachePrefix+memory.SeedViewerProfileID))
	assert.False(t, authz.CanView(ctx, viewer, models.ResourceImports))
	assert.Equal(t, uint64(1), metrics.Snapshot().CacheHits)
	before := authz.Summary(ctx, viewer).ProfileVersion

	updated, err := profiles.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "imports", Action: "view", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)
	assert.False(t, cache.has(grantsCachePrefix+memory.SeedViewerProfileID))
	assert.True(t, authz.CanView(ctx, viewer, models.ResourceImports))
	assert.Equal(t, updated.Version, authz.Summary(ctx, viewer).ProfileVersion)
	assert.Greater(t, updated.Version, before)
}

func TestGrantsFallBackToStoreWhenCacheFails(t *testing.T) {
	store := seededStore(t)
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	authz := NewAuthorizationService(store.Profiles, NewCacheService(cache, nil, time.Minute, nil, true), nil, time.Minute, nil)

	analyst := seededUser(t, store, memory.SeedAnalystUserID)
	assert.True(t, authz.CanView(context.Background(), analyst, models.ResourceForecast))
}

func TestAnalystPlanGrants(t *testing.T) {
	store := seededStore(t)
	authz := NewAuthorizationService(store.Profiles, nil, nil, time.Minute, nil)
	analyst := seededUser(t, store, memory.SeedAnalystUserID)
	ctx := context.Background()

	assert.False(t, authz.HasPermission(ctx, analyst, models.ResourcePlan, models.ActionDelete))
	assert.True(t, authz.HasPermission(ctx, analyst, models.ResourcePlan, models.ActionView))
}
