package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type referenceStore interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error)
	FindByID(ctx context.Context, id string) (*models.ReferenceItem, error)
	FindByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error)
	Create(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error)
	Update(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error)
	Delete(ctx context.Context, id string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, setting *models.Setting) (*models.Setting, error)
}

type referenceUsage interface {
	CountByReference(ctx context.Context, referenceID string) (int, error)
}

// ReferenceService manages configuration lookups (categories, rubriques,
// periods, plans, poles) and key/value settings.
type ReferenceService struct {
	store     referenceStore
	usage     referenceUsage
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService constructs a ReferenceService.
func NewReferenceService(store referenceStore, usage referenceUsage, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReferenceService{store: store, usage: usage, audit: audit, validator: validate, logger: logger}
}

// List returns reference items matching the filter.
func (s *ReferenceService) List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown reference kind "+string(filter.Kind))
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reference data")
	}
	return items, nil
}

// Get returns a reference item by ID.
func (s *ReferenceService) Get(ctx context.Context, id string) (*models.ReferenceItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load reference item")
	}
	if item == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reference item not found")
	}
	return item, nil
}

// Create adds a reference item after checking the per-kind rules.
func (s *ReferenceService) Create(ctx context.Context, req dto.CreateReferenceRequest, actor models.Actor) (*models.ReferenceItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid reference payload")
	}
	item := &models.ReferenceItem{
		Kind:      req.Kind,
		Code:      strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:      strings.TrimSpace(req.Name),
		ParentID:  req.ParentID,
		Direction: req.Direction,
		StartsOn:  req.StartsOn,
		EndsOn:    req.EndsOn,
		SortOrder: req.SortOrder,
		Active:    true,
	}
	if err := s.checkRules(ctx, item); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, item)
	if err != nil {
		return nil, storeError(err, string(req.Kind)+" "+item.Code, "failed to create reference item")
	}
	s.audit.Record(ctx, actor, models.AuditActionSettingsUpdate, string(models.ResourceSettings), created.ID,
		fmt.Sprintf("created %s %s", created.Kind, created.Code))
	return created, nil
}

// Update merges the provided fields into a reference item.
func (s *ReferenceService) Update(ctx context.Context, id string, req dto.UpdateReferenceRequest, actor models.Actor) (*models.ReferenceItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid reference payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		item.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.ParentID != nil {
		item.ParentID = req.ParentID
	}
	if req.Direction != nil {
		item.Direction = req.Direction
	}
	if req.StartsOn != nil {
		item.StartsOn = req.StartsOn
	}
	if req.EndsOn != nil {
		item.EndsOn = req.EndsOn
	}
	if req.Closed != nil {
		item.Closed = *req.Closed
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if err := s.checkRules(ctx, item); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, item)
	if err != nil {
		return nil, storeError(err, string(item.Kind)+" "+item.Code, "failed to update reference item")
	}
	s.audit.Record(ctx, actor, models.AuditActionSettingsUpdate, string(models.ResourceSettings), id,
		fmt.Sprintf("updated %s %s", updated.Kind, updated.Code))
	return updated, nil
}

// Delete removes a reference item that no entry or child item references.
func (s *ReferenceService) Delete(ctx context.Context, id string, actor models.Actor) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	used, err := s.usage.CountByReference(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check reference usage")
	}
	if used > 0 {
		return appErrors.Clone(appErrors.ErrBusinessRule, fmt.Sprintf("%s %s is used by %d cash-flow entries", item.Kind, item.Code, used))
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, string(item.Kind)+" "+item.Code, "failed to delete reference item")
	}
	s.audit.Record(ctx, actor, models.AuditActionSettingsUpdate, string(models.ResourceSettings), id,
		fmt.Sprintf("deleted %s %s", item.Kind, item.Code))
	return nil
}

// ListSettings returns every application setting.
func (s *ReferenceService) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list settings")
	}
	return settings, nil
}

// GetSetting returns one setting.
func (s *ReferenceService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load setting")
	}
	if setting == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "setting "+key+" not found")
	}
	return setting, nil
}

// UpsertSetting creates or replaces a setting value.
func (s *ReferenceService) UpsertSetting(ctx context.Context, key string, req dto.UpsertSettingRequest, actor models.Actor) (*models.Setting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid setting payload")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setting key is required")
	}
	var updatedBy *string
	if actor.UserID != "" {
		id := actor.UserID
		updatedBy = &id
	}
	setting, err := s.store.UpsertSetting(ctx, &models.Setting{Key: key, Value: req.Value, Description: req.Description, UpdatedBy: updatedBy})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save setting")
	}
	s.audit.Record(ctx, actor, models.AuditActionSettingsUpdate, string(models.ResourceSettings), key, fmt.Sprintf("%s=%s", key, req.Value))
	return setting, nil
}

// checkRules enforces the per-kind shape of a reference item.
func (s *ReferenceService) checkRules(ctx context.Context, item *models.ReferenceItem) error {
	switch item.Kind {
	case models.ReferenceCategory:
		if item.Direction == nil {
			return appErrors.Clone(appErrors.ErrValidation, "a category needs a direction")
		}
		item.ParentID = nil
	case models.ReferenceRubrique:
		if item.ParentID == nil || *item.ParentID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "a rubrique needs a parent category")
		}
		parent, err := s.store.FindByID(ctx, *item.ParentID)
		if err != nil {
			return appErrors.Internal(err, "failed to load parent category")
		}
		if parent == nil || parent.Kind != models.ReferenceCategory {
			return appErrors.Clone(appErrors.ErrValidation, "parent "+*item.ParentID+" is not a category")
		}
	case models.ReferencePeriod, models.ReferencePlan:
		if item.StartsOn == nil || item.EndsOn == nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a %s needs starts_on and ends_on", item.Kind))
		}
		if item.EndsOn.Before(*item.StartsOn) {
			return appErrors.Clone(appErrors.ErrValidation, "ends_on must not be before starts_on")
		}
	}
	return nil
}
