package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type userStore interface {
	List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type profileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type userTokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
}

// UserService handles user management workflows.
type UserService struct {
	repo      userStore
	profiles  profileReader
	tokens    userTokenRevoker
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userStore, profiles profileReader, tokens userTokenRevoker, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, profiles: profiles, tokens: tokens, audit: audit, validator: validate, logger: logger}
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[models.User]{}, appErrors.Internal(err, "failed to list users")
	}
	return page, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// Create adds a new user.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest, actor models.Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a user with email "+email+" already exists")
	}
	if err := s.requireProfile(ctx, req.ProfileID); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	status := req.Status
	if status == "" {
		status = models.UserStatusActive
	}
	created, err := s.repo.Create(ctx, &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         req.Role,
		ProfileID:    req.ProfileID,
		Status:       status,
		Department:   req.Department,
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, storeError(err, "user", "failed to create user")
	}

	details, _ := json.Marshal(map[string]interface{}{"email": created.Email, "role": created.Role, "profile_id": created.ProfileID})
	s.audit.Record(ctx, actor, models.AuditActionUserCreate, string(models.ResourceUsers), created.ID, string(details))
	return created, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"role": user.Role, "status": user.Status, "profile_id": user.ProfileID}
	wasActive := user.Active()

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.EqualFold(email, user.Email) {
			other, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, appErrors.Internal(err, "failed to check email uniqueness")
			}
			if other != nil && other.ID != id {
				return nil, appErrors.Clone(appErrors.ErrConflict, "a user with email "+email+" already exists")
			}
		}
		user.Email = email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.ProfileID != nil && *req.ProfileID != user.ProfileID {
		if err := s.requireProfile(ctx, *req.ProfileID); err != nil {
			return nil, err
		}
		user.ProfileID = *req.ProfileID
	}
	if req.Status != nil {
		if *req.Status == models.UserStatusInactive && id == actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrBusinessRule, "you cannot deactivate your own account")
		}
		user.Status = *req.Status
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, storeError(err, "user", "failed to update user")
	}
	if wasActive && !updated.Active() {
		s.revokeSessions(ctx, id)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"before": before,
		"after":  map[string]interface{}{"role": updated.Role, "status": updated.Status, "profile_id": updated.ProfileID},
	})
	s.audit.Record(ctx, actor, models.AuditActionUserUpdate, string(models.ResourceUsers), id, string(details))
	return updated, nil
}

// AssignProfile moves a user to an existing profile.
func (s *UserService) AssignProfile(ctx context.Context, id string, req dto.AssignProfileRequest, actor models.Actor) (*models.User, error) {
	return s.Update(ctx, id, dto.UpdateUserRequest{ProfileID: &req.ProfileID}, actor)
}

// Delete removes a user. Users cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if id == actor.UserID {
		return appErrors.Clone(appErrors.ErrBusinessRule, "you cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "user", "failed to delete user")
	}

	details, _ := json.Marshal(map[string]interface{}{"email": user.Email})
	s.audit.Record(ctx, actor, models.AuditActionUserDelete, string(models.ResourceUsers), id, string(details))
	return nil
}

func (s *UserService) requireProfile(ctx context.Context, profileID string) error {
	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		return appErrors.Internal(err, "failed to load profile")
	}
	if profile == nil {
		return appErrors.Clone(appErrors.ErrValidation, "profile "+profileID+" does not exist")
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.String("user_id", userID), zap.Error(err))
	}
}
