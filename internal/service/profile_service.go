package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

// permissionWriteAttempts bounds re-reads when a grant toggle races another edit.
const permissionWriteAttempts = 3

type profileStore interface {
	List(ctx context.Context) ([]models.Profile, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByName(ctx context.Context, name string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile, expectedVersion int) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

type profileUserCounter interface {
	CountByProfile(ctx context.Context, profileID string) (int, error)
}

type grantsInvalidator interface {
	Invalidate(ctx context.Context, profileID string)
}

// ProfileService manages profiles and their permission grants.
type ProfileService struct {
	store     profileStore
	users     profileUserCounter
	grants    grantsInvalidator
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(store profileStore, users profileUserCounter, grants grantsInvalidator, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{store: store, users: users, grants: grants, audit: audit, validator: validate, logger: logger}
}

// List returns every profile.
func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list profiles")
	}
	return profiles, nil
}

// Get returns a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	return profile, nil
}

// Create adds a new non-default profile without any grant.
func (s *ProfileService) Create(ctx context.Context, req dto.CreateProfileRequest, actor models.Actor) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create profile payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if err := s.ensureNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &models.Profile{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Permissions: models.Permissions{},
	})
	if err != nil {
		return nil, storeError(err, "profile", "failed to create profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionProfileCreate, string(models.ResourceProfiles), created.ID, "created profile "+created.Name)
	return created, nil
}

// Update merges the provided fields. A stale ExpectedVersion fails with a conflict.
func (s *ProfileService) Update(ctx context.Context, id string, req dto.UpdateProfileRequest, actor models.Actor) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update profile payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.Version {
		return nil, storeError(repository.ErrVersionConflict, "profile", "")
	}

	next := current.Clone()
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
		}
		if !strings.EqualFold(name, current.Name) {
			if err := s.ensureNameAvailable(ctx, name, id); err != nil {
				return nil, err
			}
		}
		next.Name = name
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.Permissions != nil {
		perms, err := parsePermissions(req.Permissions)
		if err != nil {
			return nil, err
		}
		next.Permissions = perms
	}

	updated, err := s.store.Update(ctx, next, current.Version)
	if err != nil {
		return nil, storeError(err, "profile", "failed to update profile")
	}
	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, models.AuditActionProfileUpdate, string(models.ResourceProfiles), id, "updated profile "+updated.Name)
	return updated, nil
}

// Delete removes a profile. Default profiles and profiles still assigned to a
// user are rejected.
func (s *ProfileService) Delete(ctx context.Context, id string, actor models.Actor) error {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if profile.IsDefault {
		return appErrors.Clone(appErrors.ErrBusinessRule, "default profile cannot be deleted")
	}
	assigned, err := s.users.CountByProfile(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check profile assignments")
	}
	if assigned > 0 {
		return appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("profile is still assigned to %d user(s)", assigned))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "profile", "failed to delete profile")
	}
	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, models.AuditActionProfileDelete, string(models.ResourceProfiles), id, "deleted profile "+profile.Name)
	return nil
}

// SetPermission grants or revokes one action. Repeating a call is a no-op and
// revoking the last action of a resource removes its entry.
func (s *ProfileService) SetPermission(ctx context.Context, id string, req dto.SetPermissionRequest, actor models.Actor) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid permission payload")
	}
	resource, ok := models.ParseResource(req.Resource)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource "+req.Resource)
	}
	action, ok := models.ParseAction(req.Action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown action "+req.Action)
	}
	granted := *req.Granted
	details := fmt.Sprintf("%s %s:%s", grantVerb(granted), resource, action)
	return s.mutatePermissions(ctx, id, actor, details, func(p models.Permissions) models.Permissions {
		return p.Set(resource, action, granted)
	})
}

// SetAllForResource grants every action on a resource or clears its entry.
func (s *ProfileService) SetAllForResource(ctx context.Context, id string, req dto.SetResourceRequest, actor models.Actor) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid permission payload")
	}
	resource, ok := models.ParseResource(req.Resource)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource "+req.Resource)
	}
	granted := *req.Granted
	details := fmt.Sprintf("%s %s:*", grantVerb(granted), resource)
	return s.mutatePermissions(ctx, id, actor, details, func(p models.Permissions) models.Permissions {
		return p.SetAll(resource, granted)
	})
}

// Duplicate copies a profile's grants into a new non-default profile.
func (s *ProfileService) Duplicate(ctx context.Context, id string, req dto.DuplicateProfileRequest, actor models.Actor) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid duplicate profile payload")
	}
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &models.Profile{
		Name:        name,
		Description: source.Description,
		Permissions: source.Permissions.Clone(),
	})
	if err != nil {
		return nil, storeError(err, "profile", "failed to duplicate profile")
	}
	s.audit.Record(ctx, actor, models.AuditActionProfileCreate, string(models.ResourceProfiles), created.ID,
		fmt.Sprintf("duplicated profile %s as %s", source.Name, created.Name))
	return created, nil
}

func (s *ProfileService) mutatePermissions(ctx context.Context, id string, actor models.Actor, details string, apply func(models.Permissions) models.Permissions) (*models.Profile, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		next := apply(current.Permissions)
		if reflect.DeepEqual(next, current.Permissions.Normalize()) {
			return current, nil
		}

		candidate := current.Clone()
		candidate.Permissions = next
		updated, err := s.store.Update(ctx, candidate, current.Version)
		if errors.Is(err, repository.ErrVersionConflict) && attempt < permissionWriteAttempts {
			s.logger.Debug("profile changed during permission update, retrying", zap.String("profile_id", id), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, storeError(err, "profile", "failed to update permissions")
		}
		s.invalidate(ctx, id)
		s.audit.Record(ctx, actor, models.AuditActionPermissionChange, string(models.ResourceProfiles), id, details)
		return updated, nil
	}
}

func (s *ProfileService) invalidate(ctx context.Context, id string) {
	if s.grants != nil {
		s.grants.Invalidate(ctx, id)
	}
}

func (s *ProfileService) ensureNameAvailable(ctx context.Context, name, exceptID string) error {
	existing, err := s.store.FindByName(ctx, name)
	if err != nil {
		return appErrors.Internal(err, "failed to check profile name")
	}
	if existing != nil && existing.ID != exceptID {
		return appErrors.Clone(appErrors.ErrConflict, "a profile named "+name+" already exists")
	}
	return nil
}

// parsePermissions rejects unknown tags instead of silently dropping them.
func parsePermissions(in []models.Permission) (models.Permissions, error) {
	for _, perm := range in {
		if !perm.Resource.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource "+string(perm.Resource))
		}
		for _, a := range perm.Actions {
			if !a.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown action "+string(a))
			}
		}
	}
	return models.Permissions(in).Normalize(), nil
}

func grantVerb(granted bool) string {
	if granted {
		return "grant"
	}
	return "revoke"
}
