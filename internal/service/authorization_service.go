package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/models"
)

type authzProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

// cachedGrants is the cache payload for a profile's grants.
type cachedGrants struct {
	ProfileID   string             `json:"profile_id"`
	Name        string             `json:"name"`
	Version     int                `json:"version"`
	Permissions models.Permissions `json:"permissions"`
}

// resolvedGrants is the outcome of a profile lookup for one user.
type resolvedGrants struct {
	profile  cachedGrants
	grants   models.Grants
	resolved bool
}

// AuthorizationService answers permission questions from a user's profile.
// Every lookup failure degrades to an empty grant set.
type AuthorizationService struct {
	profiles authzProfileReader
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
}

// NewAuthorizationService constructs the service. cache and metrics may be nil.
func NewAuthorizationService(profiles authzProfileReader, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *AuthorizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizationService{profiles: profiles, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// Grants resolves the user's resource → action map. It never fails: an unknown
// profile or a store error yields empty grants.
func (s *AuthorizationService) Grants(ctx context.Context, user *models.User) models.Grants {
	return s.resolve(ctx, user).grants
}

// HasPermission reports whether the user may perform action on resource.
func (s *AuthorizationService) HasPermission(ctx context.Context, user *models.User, resource models.Resource, action models.Action) bool {
	allowed := s.Grants(ctx, user).Has(resource, action)
	s.metrics.RecordAuthzDecision(resource, action, allowed)
	return allowed
}

// CanView is HasPermission for ActionView.
func (s *AuthorizationService) CanView(ctx context.Context, user *models.User, resource models.Resource) bool {
	return s.HasPermission(ctx, user, resource, models.ActionView)
}

// CanCreate is HasPermission for ActionCreate.
func (s *AuthorizationService) CanCreate(ctx context.Context, user *models.User, resource models.Resource) bool {
	return s.HasPermission(ctx, user, resource, models.ActionCreate)
}

// CanEdit is HasPermission for ActionEdit.
func (s *AuthorizationService) CanEdit(ctx context.Context, user *models.User, resource models.Resource) bool {
	return s.HasPermission(ctx, user, resource, models.ActionEdit)
}

// CanDelete is HasPermission for ActionDelete.
func (s *AuthorizationService) CanDelete(ctx context.Context, user *models.User, resource models.Resource) bool {
	return s.HasPermission(ctx, user, resource, models.ActionDelete)
}

// CanExport is HasPermission for ActionExport.
func (s *AuthorizationService) CanExport(ctx context.Context, user *models.User, resource models.Resource) bool {
	return s.HasPermission(ctx, user, resource, models.ActionExport)
}

// IsAdmin is a display hint only: the Admin role label, or view access on both
// users and profiles. Guards must check the concrete resource/action instead.
func (s *AuthorizationService) IsAdmin(ctx context.Context, user *models.User) bool {
	return isAdmin(user, s.Grants(ctx, user))
}

func isAdmin(user *models.User, grants models.Grants) bool {
	if user == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return grants.Has(models.ResourceUsers, models.ActionView) && grants.Has(models.ResourceProfiles, models.ActionView)
}

// Summary renders the user's resolved permission state for UI visibility logic.
func (s *AuthorizationService) Summary(ctx context.Context, user *models.User) models.PermissionSummary {
	res := s.resolve(ctx, user)
	summary := models.PermissionSummary{
		Resolved:    res.resolved,
		Permissions: res.grants.Map(),
		Resources:   res.grants.Resources(),
		IsAdmin:     isAdmin(user, res.grants),
		Navigation:  models.Navigation(res.grants),
	}
	if user != nil {
		summary.UserID = user.ID
		summary.ProfileID = user.ProfileID
	}
	if res.resolved {
		summary.ProfileName = res.profile.Name
		summary.ProfileVersion = res.profile.Version
	}
	return summary
}

// Invalidate drops cached grants of a profile.
func (s *AuthorizationService) Invalidate(ctx context.Context, profileID string) {
	if err := s.cache.InvalidateGrants(ctx, profileID); err != nil {
		s.logger.Warn("failed to invalidate cached grants", zap.String("profile_id", profileID), zap.Error(err))
	}
}

func (s *AuthorizationService) resolve(ctx context.Context, user *models.User) resolvedGrants {
	empty := resolvedGrants{grants: models.Grants{}}
	if user == nil || user.ProfileID == "" {
		s.failClosed(user, nil)
		return empty
	}

	key := grantsKey(user.ProfileID)
	var cached cachedGrants
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.ProfileID == user.ProfileID {
		return resolvedGrants{profile: cached, grants: models.NewGrants(cached.Permissions), resolved: true}
	}

	profile, err := s.profiles.FindByID(ctx, user.ProfileID)
	if err != nil || profile == nil {
		s.failClosed(user, err)
		return empty
	}

	cached = cachedGrants{ProfileID: profile.ID, Name: profile.Name, Version: profile.Version, Permissions: profile.Permissions}
	if err := s.cache.Set(ctx, key, cached, s.ttl); err != nil {
		s.logger.Debug("grant cache write skipped", zap.String("profile_id", profile.ID), zap.Error(err))
	}
	return resolvedGrants{profile: cached, grants: models.NewGrants(profile.Permissions), resolved: true}
}

func (s *AuthorizationService) failClosed(user *models.User, err error) {
	s.metrics.RecordAuthzFailClosed()
	fields := []zap.Field{zap.Error(err)}
	if user != nil {
		fields = append(fields, zap.String("user_id", user.ID), zap.String("profile_id", user.ProfileID))
	}
	s.logger.Warn("permission resolution failed closed", fields...)
}
