package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

func newProfileFixture(t *testing.T) (*ProfileService, *repository.Store) {
	t.Helper()
	store := seededStore(t)
	return NewProfileService(store.Profiles, store.Users, nil, NewAuditService(store.Audit, nil), nil, nil), store
}

func TestCreateProfileStartsEmpty(t *testing.T) {
	svc, _ := newProfileFixture(t)

	created, err := svc.Create(context.Background(), dto.CreateProfileRequest{Name: "  Auditeur ", Description: "Lecture seule"}, adminActor())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Auditeur", created.Name)
	assert.Empty(t, created.Permissions)
	assert.False(t, created.IsDefault)
	assert.Equal(t, 1, created.Version)
}

func TestCreateProfileDuplicateName(t *testing.T) {
	svc, _ := newProfileFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateProfileRequest{Name: "analyste"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSetPermissionIsIdempotent(t *testing.T) {
	svc, store := newProfileFixture(t)
	ctx := context.Background()
	req := dto.SetPermissionRequest{Resource: "imports", Action: "delete", Granted: ptr(true)}

	first, err := svc.SetPermission(ctx, memory.SeedAnalystProfileID, req, adminActor())
	require.NoError(t, err)
	second, err := svc.SetPermission(ctx, memory.SeedAnalystProfileID, req, adminActor())
	require.NoError(t, err)

	assert.Equal(t, first.Permissions, second.Permissions)
	assert.Equal(t, first.Version, second.Version)

	logs, err := store.Audit.List(ctx, models.AuditFilter{Action: models.AuditActionPermissionChange})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Total)
}

func TestRevokingLastActionPrunesResource(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	updated, err := svc.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "reporting", Action: "view", Granted: ptr(false)}, adminActor())
	require.NoError(t, err)

	assert.NotContains(t, updated.Permissions.Resources(), models.ResourceReporting)
	for _, p := range updated.Permissions {
		assert.NotEmpty(t, p.Actions)
	}
}

func TestSetAllForResource(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	granted, err := svc.SetAllForResource(ctx, memory.SeedViewerProfileID, dto.SetResourceRequest{Resource: "forecast", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)
	grants := models.NewGrants(granted.Permissions)
	for _, a := range models.AllActions() {
		assert.True(t, grants.Has(models.ResourceForecast, a))
	}

	cleared, err := svc.SetAllForResource(ctx, memory.SeedViewerProfileID, dto.SetResourceRequest{Resource: "forecast", Granted: ptr(false)}, adminActor())
	require.NoError(t, err)
	assert.NotContains(t, cleared.Permissions.Resources(), models.ResourceForecast)
}

func TestSetPermissionRejectsUnknownTags(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	_, err := svc.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "payroll", Action: "view", Granted: ptr(true)}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "dashboard", Action: "approve", Granted: ptr(true)}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUpdateProfileStaleVersion(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, memory.SeedAnalystProfileID, dto.UpdateProfileRequest{Description: ptr("v2"), ExpectedVersion: ptr(1)}, adminActor())
	require.NoError(t, err)

	_, err = svc.Update(ctx, memory.SeedAnalystProfileID, dto.UpdateProfileRequest{Description: ptr("v3"), ExpectedVersion: ptr(1)}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	current, err := svc.Get(ctx, memory.SeedAnalystProfileID)
	require.NoError(t, err)
	assert.Equal(t, "v2", current.Description)
	assert.Equal(t, 2, current.Version)
}

func TestUpdateProfileUnknownID(t *testing.T) {
	svc, _ := newProfileFixture(t)

	_, err := svc.Update(context.Background(), "profile-ghost", dto.UpdateProfileRequest{Description: ptr("x")}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDeleteDefaultProfileRejected(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	err := svc.Delete(ctx, memory.SeedAdminProfileID, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	still, err := svc.Get(ctx, memory.SeedAdminProfileID)
	require.NoError(t, err)
	assert.True(t, still.IsDefault)
}

func TestDeleteAssignedProfileRejected(t *testing.T) {
	svc, store := newProfileFixture(t)
	ctx := context.Background()

	err := svc.Delete(ctx, memory.SeedViewerProfileID, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	require.NoError(t, store.Users.Delete(ctx, memory.SeedViewerUserID))
	require.NoError(t, svc.Delete(ctx, memory.SeedViewerProfileID, adminActor()))

	_, err = svc.Get(ctx, memory.SeedViewerProfileID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDuplicateProfileCopiesGrants(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	source, err := svc.Get(ctx, memory.SeedAnalystProfileID)
	require.NoError(t, err)
	dup, err := svc.Duplicate(ctx, memory.SeedAnalystProfileID, dto.DuplicateProfileRequest{Name: "Analyste junior"}, adminActor())
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, dup.ID)
	assert.False(t, dup.IsDefault)
	assert.Equal(t, source.Permissions, dup.Permissions)
}

// racingProfiles reports a version conflict on the first n updates.
type racingProfiles struct {
	repository.ProfileStore
	conflicts int
}

func (r *racingProfiles) Update(ctx context.Context, p *models.Profile, expected int) (*models.Profile, error) {
	if r.conflicts > 0 {
		r.conflicts--
		return nil, repository.ErrVersionConflict
	}
	return r.ProfileStore.Update(ctx, p, expected)
}

func TestSetPermissionRetriesOnConcurrentEdit(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	racing := &racingProfiles{ProfileStore: store.Profiles, conflicts: 1}
	svc := NewProfileService(racing, store.Users, nil, nil, nil, nil)
	updated, err := svc.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "plan", Action: "view", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)
	assert.True(t, models.NewGrants(updated.Permissions).Has(models.ResourcePlan, models.ActionView))

	racing.conflicts = permissionWriteAttempts
	_, err = svc.SetPermission(ctx, memory.SeedViewerProfileID, dto.SetPermissionRequest{Resource: "plan", Action: "edit", Granted: ptr(true)}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestSetAllForResourceGrantsFullActionSet(t *testing.T) {
	svc, _ := newProfileFixture(t)
	ctx := context.Background()

	_, err := svc.SetAllForResource(ctx, memory.SeedAnalystProfileID, dto.SetResourceRequest{Resource: "users", Granted: ptr(true)}, adminActor())
	require.NoError(t, err)

	profile, err := svc.Get(ctx, memory.SeedAnalystProfileID)
	require.NoError(t, err)
	var users []models.Action
	for _, p := range profile.Permissions {
		if p.Resource == models.ResourceUsers {
			users = p.Actions
		}
	}
	assert.ElementsMatch(t, models.AllActions(), users)
}
