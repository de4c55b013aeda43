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

const defaultCurrency = "XOF"

type cashFlowStore interface {
	List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error)
	FindByID(ctx context.Context, id string) (*models.CashFlowEntry, error)
	Create(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error)
	Update(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error)
	Delete(ctx context.Context, id string) error
}

// CashFlowService manages planned and realised treasury movements.
type CashFlowService struct {
	store     cashFlowStore
	reference referenceLister
	cache     *CacheService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCashFlowService constructs a CashFlowService.
func NewCashFlowService(store cashFlowStore, reference referenceLister, cache *CacheService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *CashFlowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CashFlowService{store: store, reference: reference, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns a page of entries.
func (s *CashFlowService) List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return models.Page[models.CashFlowEntry]{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return models.Page[models.CashFlowEntry]{}, appErrors.Internal(err, "failed to list cash-flow entries")
	}
	return page, nil
}

// Get returns one entry.
func (s *CashFlowService) Get(ctx context.Context, id string) (*models.CashFlowEntry, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load cash-flow entry")
	}
	if entry == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "cash-flow entry not found")
	}
	return entry, nil
}

// Create validates and records a new entry.
func (s *CashFlowService) Create(ctx context.Context, req dto.CreateEntryRequest, actor models.Actor) (*models.CashFlowEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid cash-flow entry")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	entry := &models.CashFlowEntry{
		PlanID:      req.PlanID,
		CategoryID:  req.CategoryID,
		RubriqueID:  req.RubriqueID,
		PoleID:      req.PoleID,
		PeriodID:    req.PeriodID,
		Direction:   req.Direction,
		Amount:      req.Amount,
		Currency:    strings.ToUpper(req.Currency),
		Date:        req.Date.UTC(),
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		CreatedBy:   actor.UserID,
	}
	if entry.Currency == "" {
		entry.Currency = defaultCurrency
	}
	if entry.Status == "" {
		entry.Status = models.EntryStatusDraft
	}
	if err := s.checkReferences(ctx, entry); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, entry)
	if err != nil {
		return nil, storeError(err, "cash-flow entry", "failed to create cash-flow entry")
	}
	s.afterWrite(ctx)
	s.audit.Record(ctx, actor, models.AuditActionEntryCreate, string(models.ResourceSaisie), created.ID,
		fmt.Sprintf("%s %d %s on %s", created.Direction, created.Amount, created.Currency, created.CategoryID))
	return created, nil
}

// Update merges the provided fields and re-validates the entry.
func (s *CashFlowService) Update(ctx context.Context, id string, req dto.UpdateEntryRequest, actor models.Actor) (*models.CashFlowEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid cash-flow entry")
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		entry.CategoryID = *req.CategoryID
	}
	if req.RubriqueID != nil {
		entry.RubriqueID = *req.RubriqueID
	}
	if req.PoleID != nil {
		entry.PoleID = *req.PoleID
	}
	if req.Date != nil {
		entry.Date = req.Date.UTC()
		entry.PeriodID = ""
	}
	if req.PeriodID != nil {
		entry.PeriodID = *req.PeriodID
	}
	if req.Direction != nil {
		entry.Direction = *req.Direction
	}
	if req.Amount != nil {
		entry.Amount = *req.Amount
	}
	if req.Description != nil {
		entry.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		entry.Status = *req.Status
	}
	if err := s.checkReferences(ctx, entry); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, entry)
	if err != nil {
		return nil, storeError(err, "cash-flow entry", "failed to update cash-flow entry")
	}
	s.afterWrite(ctx)
	s.audit.Record(ctx, actor, models.AuditActionEntryUpdate, string(models.ResourceSaisie), id,
		fmt.Sprintf("%s %d %s on %s", updated.Direction, updated.Amount, updated.Currency, updated.CategoryID))
	return updated, nil
}

// Delete removes an entry unless its period is closed.
func (s *CashFlowService) Delete(ctx context.Context, id string, actor models.Actor) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry.PeriodID != "" {
		ix, err := loadReferenceIndex(ctx, s.reference)
		if err != nil {
			return err
		}
		if period, ok := ix.item(models.ReferencePeriod, entry.PeriodID); ok && period.Closed {
			return appErrors.Clone(appErrors.ErrBusinessRule, "period "+period.Code+" is closed")
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "cash-flow entry", "failed to delete cash-flow entry")
	}
	s.afterWrite(ctx)
	s.audit.Record(ctx, actor, models.AuditActionEntryDelete, string(models.ResourceSaisie), id, "deleted entry "+id)
	return nil
}

func (s *CashFlowService) checkReferences(ctx context.Context, entry *models.CashFlowEntry) error {
	ix, err := loadReferenceIndex(ctx, s.reference)
	if err != nil {
		return err
	}
	return ix.check(entry)
}

// afterWrite drops cached aggregates derived from entries.
func (s *CashFlowService) afterWrite(ctx context.Context) {
	if err := s.cache.InvalidateDashboards(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
