package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

const cashFlowColumns = `id, plan_id, category_id, rubrique_id, pole_id, period_id, direction, amount, currency, entry_date,
description, status, import_id, created_by, created_at, updated_at`

const cashFlowInsert = `INSERT INTO cash_flow_entries (` + cashFlowColumns + `)
VALUES (:id, :plan_id, :category_id, :rubrique_id, :pole_id, :period_id, :direction, :amount, :currency, :entry_date,
:description, :status, :import_id, :created_by, :created_at, :updated_at)`

// CashFlowRepository persists cash-flow entries.
type CashFlowRepository struct {
	db *sqlx.DB
}

// NewCashFlowRepository constructs the repository.
func NewCashFlowRepository(db *sqlx.DB) *CashFlowRepository {
	return &CashFlowRepository{db: db}
}

// cashFlowConditions renders the non-paging criteria of a filter.
func cashFlowConditions(filter models.CashFlowFilter) conditions {
	var cond conditions
	if filter.PlanID != "" {
		cond.add("plan_id = ?", filter.PlanID)
	}
	if filter.CategoryID != "" {
		cond.add("category_id = ?", filter.CategoryID)
	}
	if filter.PeriodID != "" {
		cond.add("period_id = ?", filter.PeriodID)
	}
	if filter.PoleID != "" {
		cond.add("pole_id = ?", filter.PoleID)
	}
	if filter.Direction != nil {
		cond.add("direction = ?", *filter.Direction)
	}
	if filter.Status != nil {
		cond.add("status = ?", *filter.Status)
	}
	if filter.From != nil {
		cond.add("entry_date >= ?", *filter.From)
	}
	if filter.To != nil {
		cond.add("entry_date <= ?", *filter.To)
	}
	if filter.Search != "" {
		cond.add("LOWER(description) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return cond
}

// List returns a page of entries, most recent first.
func (r *CashFlowRepository) List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error) {
	cond := cashFlowConditions(filter)
	page := filter.PageRequest.Normalize()
	query := fmt.Sprintf("SELECT %s FROM cash_flow_entries %s ORDER BY entry_date DESC, created_at DESC LIMIT %d OFFSET %d",
		cashFlowColumns, cond.where(), page.PageSize, page.Offset())

	var entries []models.CashFlowEntry
	if err := r.db.SelectContext(ctx, &entries, query, cond.args...); err != nil {
		return models.Page[models.CashFlowEntry]{}, fmt.Errorf("list cash flow entries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM cash_flow_entries "+cond.where(), cond.args...); err != nil {
		return models.Page[models.CashFlowEntry]{}, fmt.Errorf("count cash flow entries: %w", err)
	}
	return models.NewPage(entries, total, page), nil
}

// FindByID fetches one entry.
func (r *CashFlowRepository) FindByID(ctx context.Context, id string) (*models.CashFlowEntry, error) {
	var entry models.CashFlowEntry
	if err := r.db.GetContext(ctx, &entry, `SELECT `+cashFlowColumns+` FROM cash_flow_entries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cash flow entry: %w", err)
	}
	return &entry, nil
}

// Create inserts one entry.
func (r *CashFlowRepository) Create(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error) {
	stored := prepareEntry(*entry, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, cashFlowInsert, &stored); err != nil {
		return nil, translate(err, "create cash flow entry")
	}
	return &stored, nil
}

// CreateBatch inserts entries atomically.
func (r *CashFlowRepository) CreateBatch(ctx context.Context, entries []models.CashFlowEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cash flow batch tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i := range entries {
		stored := prepareEntry(entries[i], now)
		if _, err := tx.NamedExecContext(ctx, cashFlowInsert, &stored); err != nil {
			return translate(err, "insert cash flow batch")
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cash flow batch: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an entry.
func (r *CashFlowRepository) Update(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error) {
	stored := *entry
	stored.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cash_flow_entries SET plan_id = :plan_id, category_id = :category_id, rubrique_id = :rubrique_id,
pole_id = :pole_id, period_id = :period_id, direction = :direction, amount = :amount, currency = :currency,
entry_date = :entry_date, description = :description, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, &stored)
	if err != nil {
		return nil, translate(err, "update cash flow entry")
	}
	if err := requireAffected(res, "update cash flow entry"); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, stored.ID)
}

// Delete removes one entry.
func (r *CashFlowRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cash_flow_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cash flow entry: %w", err)
	}
	return requireAffected(res, "delete cash flow entry")
}

// DeleteByImport removes the entries created by an import batch.
func (r *CashFlowRepository) DeleteByImport(ctx context.Context, importID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cash_flow_entries WHERE import_id = $1`, importID)
	if err != nil {
		return 0, fmt.Errorf("delete imported entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete imported entries: %w", err)
	}
	return n, nil
}

// CountByReference counts entries pointing at a reference item in any role.
func (r *CashFlowRepository) CountByReference(ctx context.Context, referenceID string) (int, error) {
	const query = `SELECT COUNT(*) FROM cash_flow_entries
WHERE plan_id = $1 OR category_id = $1 OR rubrique_id = $1 OR pole_id = $1 OR period_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, referenceID); err != nil {
		return 0, fmt.Errorf("count entries by reference: %w", err)
	}
	return count, nil
}

func prepareEntry(e models.CashFlowEntry, now time.Time) models.CashFlowEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = models.EntryStatusDraft
	}
	return e
}
