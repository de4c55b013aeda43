package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

var testAuthConfig = AuthConfig{
	AccessTokenSecret:  "test-secret",
	AccessTokenExpiry:  15 * time.Minute,
	RefreshTokenExpiry: 24 * time.Hour,
	Issuer:             "treasury-api",
}

func newAuthFixture(t *testing.T, cfg AuthConfig) (*AuthService, *repository.Store) {
	t.Helper()
	store := seededStore(t)
	return NewAuthService(store.Users, store.Tokens, NewAuditService(store.Audit, nil), nil, nil, cfg), store
}

func login(t *testing.T, svc *AuthService, email string) *models.LoginResponse {
	t.Helper()
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: email, Password: memory.SeedPassword, IP: "10.0.0.2"})
	require.NoError(t, err)
	return resp
}

func TestLoginIssuesTokens(t *testing.T) {
	svc, store := newAuthFixture(t, testAuthConfig)

	resp := login(t, svc, "a.kone@cie.ci")
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, memory.SeedAnalystUserID, resp.User.ID)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, memory.SeedAnalystUserID, claims.UserID)
	assert.Equal(t, memory.SeedAnalystProfileID, claims.ProfileID)

	logs, err := store.Audit.List(context.Background(), models.AuditFilter{Action: models.AuditActionLogin})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Total)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, store := newAuthFixture(t, testAuthConfig)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "a.kone@cie.ci", Password: "nope-nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@cie.ci", Password: "nope-nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	logs, err := store.Audit.List(ctx, models.AuditFilter{Action: models.AuditActionLoginFailed})
	require.NoError(t, err)
	assert.Equal(t, 2, logs.Total)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, store := newAuthFixture(t, testAuthConfig)
	ctx := context.Background()

	viewer := seededUser(t, store, memory.SeedViewerUserID)
	viewer.Status = models.UserStatusInactive
	_, err := store.Users.Update(ctx, viewer)
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "f.traore@cie.ci", Password: memory.SeedPassword})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)
	ctx := context.Background()
	first := login(t, svc, "admin@cie.ci")

	rotated, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrAuthExpired)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "unknown"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestSingleSessionRevokesEarlierTokens(t *testing.T) {
	cfg := testAuthConfig
	cfg.SingleSession = true
	svc, _ := newAuthFixture(t, cfg)

	first := login(t, svc, "admin@cie.ci")
	login(t, svc, "admin@cie.ci")

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrAuthExpired)
}

func TestLogoutChecksOwnership(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)
	ctx := context.Background()
	resp := login(t, svc, "admin@cie.ci")

	err := svc.Logout(ctx, resp.RefreshToken, models.Actor{UserID: memory.SeedViewerUserID})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Logout(ctx, resp.RefreshToken, adminActor()))
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrAuthExpired)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)
	ctx := context.Background()
	resp := login(t, svc, "admin@cie.ci")

	err := svc.ChangePassword(ctx, models.ChangePasswordRequest{OldPassword: "wrong-one", NewPassword: "N3wPassword!"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.ChangePassword(ctx, models.ChangePasswordRequest{OldPassword: memory.SeedPassword, NewPassword: "N3wPassword!"}, adminActor()))

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrAuthExpired)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "admin@cie.ci", Password: "N3wPassword!"})
	assert.NoError(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)
	admin := &models.User{ID: memory.SeedAdminUserID, ProfileID: memory.SeedAdminProfileID, Role: models.RoleAdmin}

	token, _, err := svc.generateAccessToken(admin, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrAuthExpired)
}

func TestValidateForeignToken(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: memory.SeedAdminUserID})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	svc, _ := newAuthFixture(t, testAuthConfig)

	info, err := svc.Me(context.Background(), memory.SeedManagerUserID)
	require.NoError(t, err)
	assert.Equal(t, "y.nguessan@cie.ci", info.Email)

	_, err = svc.Me(context.Background(), "user-ghost")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

