package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/pkg/jobs"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

// ImportJobType tags cash-flow import jobs on the queue.
const ImportJobType = "cashflow.import"

const importDateLayout = "2006-01-02"

type importStore interface {
	Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error)
	FindByID(ctx context.Context, id string) (*models.ImportBatch, error)
	List(ctx context.Context, filter models.ImportFilter) (models.Page[models.ImportBatch], error)
	Update(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error)
	Delete(ctx context.Context, id string) error
}

type importEntryWriter interface {
	CreateBatch(ctx context.Context, entries []models.CashFlowEntry) error
	DeleteByImport(ctx context.Context, importID string) (int64, error)
}

type jobEnqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

// importPayload travels on the queue; rows are not persisted with the batch.
type importPayload struct {
	Rows  []models.ImportRow
	Actor models.Actor
}

// ImportService accepts uploaded rows and turns them into cash-flow entries in
// the background.
type ImportService struct {
	store     importStore
	entries   importEntryWriter
	reference referenceLister
	queue     jobEnqueuer
	cache     *CacheService
	metrics   *MetricsService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportService constructs an ImportService. The queue is attached separately
// because it is built around Process.
func NewImportService(store importStore, entries importEntryWriter, reference referenceLister, cache *CacheService, metrics *MetricsService, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ImportService{
		store:     store,
		entries:   entries,
		reference: reference,
		cache:     cache,
		metrics:   metrics,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AttachQueue sets the queue Submit enqueues onto.
func (s *ImportService) AttachQueue(q jobEnqueuer) {
	s.queue = q
}

// Submit records a pending batch and schedules its processing.
func (s *ImportService) Submit(ctx context.Context, req dto.SubmitImportRequest, actor models.Actor) (*models.ImportBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid import payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "import processing is not available")
	}

	rows := make([]models.ImportRow, len(req.Rows))
	copy(rows, req.Rows)
	for i := range rows {
		if rows[i].Line == 0 {
			rows[i].Line = i + 2
		}
	}

	batch, err := s.store.Create(ctx, &models.ImportBatch{
		FileName:    strings.TrimSpace(req.FileName),
		PlanID:      req.PlanID,
		Status:      models.ImportStatusPending,
		TotalRows:   len(rows),
		SubmittedBy: actor.UserID,
	})
	if err != nil {
		return nil, storeError(err, "import", "failed to record import")
	}

	job := jobs.Job{ID: batch.ID, Type: ImportJobType, Payload: importPayload{Rows: rows, Actor: actor}}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.finish(context.WithoutCancel(ctx), batch, models.ImportStatusFailed, 0, []models.ImportRowError{{Message: "import could not be scheduled"}})
		return nil, appErrors.Internal(err, "failed to schedule import")
	}
	s.audit.Record(ctx, actor, models.AuditActionImportSubmit, string(models.ResourceImports), batch.ID,
		fmt.Sprintf("%s: %d rows", batch.FileName, batch.TotalRows))
	return batch, nil
}

// Process is the queue handler. Row errors fail the batch without retry; store
// errors are returned so the queue retries.
func (s *ImportService) Process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(importPayload)
	if !ok {
		return fmt.Errorf("import job %s: unexpected payload %T", job.ID, job.Payload)
	}
	batch, err := s.store.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load import %s: %w", job.ID, err)
	}
	if batch == nil {
		s.logger.Warn("import batch vanished before processing", zap.String("import_id", job.ID))
		return nil
	}

	batch.Status = models.ImportStatusProcessing
	if batch, err = s.store.Update(ctx, batch); err != nil {
		return fmt.Errorf("mark import %s processing: %w", job.ID, err)
	}

	ix, err := loadReferenceIndex(ctx, s.reference)
	if err != nil {
		return err
	}
	entries, rowErrors := s.convert(batch, payload, ix)
	if len(rowErrors) > 0 {
		s.finish(ctx, batch, models.ImportStatusFailed, 0, rowErrors)
		return nil
	}

	if _, err := s.entries.DeleteByImport(ctx, batch.ID); err != nil {
		return fmt.Errorf("clear partial import %s: %w", batch.ID, err)
	}
	if err := s.entries.CreateBatch(ctx, entries); err != nil {
		return fmt.Errorf("write import %s: %w", batch.ID, err)
	}
	if err := s.cache.InvalidateDashboards(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
	s.finish(ctx, batch, models.ImportStatusCompleted, len(entries), nil)
	return nil
}

// GiveUp marks a batch failed once the queue exhausted its retries.
func (s *ImportService) GiveUp(ctx context.Context, job jobs.Job, cause error) {
	batch, err := s.store.FindByID(context.WithoutCancel(ctx), job.ID)
	if err != nil || batch == nil {
		s.logger.Error("cannot mark abandoned import", zap.String("import_id", job.ID), zap.Error(err))
		return
	}
	s.finish(context.WithoutCancel(ctx), batch, models.ImportStatusFailed, 0, []models.ImportRowError{{Message: cause.Error()}})
}

// List returns a page of import batches.
func (s *ImportService) List(ctx context.Context, filter models.ImportFilter) (models.Page[models.ImportBatch], error) {
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return models.Page[models.ImportBatch]{}, appErrors.Internal(err, "failed to list imports")
	}
	return page, nil
}

// Get returns one import batch.
func (s *ImportService) Get(ctx context.Context, id string) (*models.ImportBatch, error) {
	batch, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load import")
	}
	if batch == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import not found")
	}
	return batch, nil
}

// Delete removes a finished batch together with the entries it created.
func (s *ImportService) Delete(ctx context.Context, id string, actor models.Actor) error {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if batch.Status == models.ImportStatusPending || batch.Status == models.ImportStatusProcessing {
		return appErrors.Clone(appErrors.ErrBusinessRule, "import is still running")
	}
	removed, err := s.entries.DeleteByImport(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete imported entries")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err, "import", "failed to delete import")
	}
	if removed > 0 {
		if err := s.cache.InvalidateDashboards(ctx); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}
	s.audit.Record(ctx, actor, models.AuditActionImportDelete, string(models.ResourceImports), id,
		fmt.Sprintf("%s: %d entries removed", batch.FileName, removed))
	return nil
}

func (s *ImportService) convert(batch *models.ImportBatch, payload importPayload, ix *referenceIndex) ([]models.CashFlowEntry, []models.ImportRowError) {
	entries := make([]models.CashFlowEntry, 0, len(payload.Rows))
	var rowErrors []models.ImportRowError
	fail := func(line int, msg string) {
		rowErrors = append(rowErrors, models.ImportRowError{Line: line, Message: msg})
	}

	for _, row := range payload.Rows {
		if err := s.validator.Struct(row); err != nil {
			fail(row.Line, err.Error())
			continue
		}
		date, err := time.Parse(importDateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			fail(row.Line, "date must use YYYY-MM-DD")
			continue
		}
		category, ok := ix.code(models.ReferenceCategory, row.CategoryCode)
		if !ok {
			fail(row.Line, "unknown category "+row.CategoryCode)
			continue
		}
		entry := models.CashFlowEntry{
			PlanID:      batch.PlanID,
			CategoryID:  category.ID,
			Direction:   models.FlowDirection(row.Direction),
			Amount:      row.Amount,
			Currency:    defaultCurrency,
			Date:        date,
			Description: strings.TrimSpace(row.Description),
			Status:      models.EntryStatusDraft,
			ImportID:    batch.ID,
			CreatedBy:   payload.Actor.UserID,
		}
		if row.RubriqueCode != "" {
			rubrique, ok := ix.code(models.ReferenceRubrique, row.RubriqueCode)
			if !ok {
				fail(row.Line, "unknown rubrique "+row.RubriqueCode)
				continue
			}
			entry.RubriqueID = rubrique.ID
		}
		if row.PoleCode != "" {
			pole, ok := ix.code(models.ReferencePole, row.PoleCode)
			if !ok {
				fail(row.Line, "unknown pole "+row.PoleCode)
				continue
			}
			entry.PoleID = pole.ID
		}
		if err := ix.check(&entry); err != nil {
			fail(row.Line, appErrors.FromError(err).Message)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rowErrors
}

func (s *ImportService) finish(ctx context.Context, batch *models.ImportBatch, status models.ImportStatus, imported int, rowErrors []models.ImportRowError) {
	done := s.now()
	batch.Status = status
	batch.ImportedRows = imported
	batch.Errors = rowErrors
	batch.CompletedAt = &done
	if _, err := s.store.Update(ctx, batch); err != nil {
		s.logger.Error("failed to record import outcome", zap.String("import_id", batch.ID), zap.String("status", string(status)), zap.Error(err))
	}
	s.metrics.RecordImportJob(status)
	s.logger.Info("import finished", zap.String("import_id", batch.ID), zap.String("status", string(status)),
		zap.Int("imported", imported), zap.Int("errors", len(rowErrors)))
}
