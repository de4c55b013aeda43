package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

func newUserFixture(t *testing.T) (*UserService, *repository.Store) {
	t.Helper()
	store := seededStore(t)
	return NewUserService(store.Users, store.Profiles, store.Tokens, NewAuditService(store.Audit, nil), nil, nil), store
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _ := newUserFixture(t)

	created, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name:      "Moussa Diallo",
		Email:     "M.Diallo@CIE.ci",
		Password:  "Sup3rSecret!",
		Role:      models.RoleAnalyst,
		ProfileID: memory.SeedAnalystProfileID,
	}, adminActor())
	require.NoError(t, err)

	assert.Equal(t, "m.diallo@cie.ci", created.Email)
	assert.Equal(t, models.UserStatusActive, created.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("Sup3rSecret!")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	req := dto.CreateUserRequest{Name: "A", Email: "a@cie.ci", Password: "password1", Role: models.RoleViewer, ProfileID: memory.SeedViewerProfileID}

	_, err := svc.Create(ctx, req, adminActor())
	require.NoError(t, err)
	before, err := svc.List(ctx, models.UserFilter{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, req, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	after, err := svc.List(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, before.Total, after.Total)
}

func TestCreateUserRequiresExistingProfile(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name: "B", Email: "b@cie.ci", Password: "password1", Role: models.RoleViewer, ProfileID: "profile-ghost",
	}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestListUsersFiltersByProfile(t *testing.T) {
	svc, _ := newUserFixture(t)

	page, err := svc.List(context.Background(), models.UserFilter{ProfileID: memory.SeedManagerProfileID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, memory.SeedManagerUserID, page.Data[0].ID)
	assert.Equal(t, 1, page.TotalPages)
}

func TestDeactivatingUserRevokesSessions(t *testing.T) {
	svc, store := newUserFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Tokens.Create(ctx, &models.RefreshToken{
		ID: "rt-1", UserID: memory.SeedViewerUserID, Token: "opaque", ExpiresAt: time.Now().Add(time.Hour),
	}))

	inactive := models.UserStatusInactive
	updated, err := svc.Update(ctx, memory.SeedViewerUserID, dto.UpdateUserRequest{Status: &inactive}, adminActor())
	require.NoError(t, err)
	assert.False(t, updated.Active())

	token, err := store.Tokens.FindByToken(ctx, "opaque")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.True(t, token.Revoked)
}

func TestUsersCannotRemoveThemselves(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	inactive := models.UserStatusInactive

	_, err := svc.Update(ctx, memory.SeedAdminUserID, dto.UpdateUserRequest{Status: &inactive}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	err = svc.Delete(ctx, memory.SeedAdminUserID, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)
}

func TestAssignProfile(t *testing.T) {
	svc, store := newUserFixture(t)
	ctx := context.Background()

	updated, err := svc.AssignProfile(ctx, memory.SeedViewerUserID, dto.AssignProfileRequest{ProfileID: memory.SeedAnalystProfileID}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, memory.SeedAnalystProfileID, updated.ProfileID)

	_, err = svc.AssignProfile(ctx, memory.SeedViewerUserID, dto.AssignProfileRequest{ProfileID: "profile-ghost"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	logs, err := store.Audit.List(ctx, models.AuditFilter{Action: models.AuditActionUserUpdate})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Total)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	err := svc.Delete(context.Background(), "user-ghost", adminActor())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
