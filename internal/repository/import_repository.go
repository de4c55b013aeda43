package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

const importColumns = `id, file_name, plan_id, status, total_rows, imported_rows, errors, submitted_by, created_at, completed_at`

// importRow is the table shape; row errors are stored as JSONB.
type importRow struct {
	models.ImportBatch
	ErrorsJSON []byte `db:"errors"`
}

func (r importRow) batch() (*models.ImportBatch, error) {
	b := r.ImportBatch
	b.Errors = nil
	if len(r.ErrorsJSON) > 0 {
		if err := json.Unmarshal(r.ErrorsJSON, &b.Errors); err != nil {
			return nil, fmt.Errorf("decode import errors: %w", err)
		}
	}
	return &b, nil
}

func toImportRow(b *models.ImportBatch) (importRow, error) {
	errs := b.Errors
	if errs == nil {
		errs = []models.ImportRowError{}
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return importRow{}, fmt.Errorf("encode import errors: %w", err)
	}
	return importRow{ImportBatch: *b, ErrorsJSON: raw}, nil
}

// ImportRepository persists import batches.
type ImportRepository struct {
	db *sqlx.DB
}

// NewImportRepository constructs the repository.
func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a new batch record.
func (r *ImportRepository) Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	stored := batch.Clone()
	stored.Rows = nil
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	row, err := toImportRow(stored)
	if err != nil {
		return nil, err
	}
	const query = `INSERT INTO import_batches (` + importColumns + `)
VALUES (:id, :file_name, :plan_id, :status, :total_rows, :imported_rows, :errors, :submitted_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return nil, translate(err, "create import batch")
	}
	return stored, nil
}

// FindByID fetches a batch.
func (r *ImportRepository) FindByID(ctx context.Context, id string) (*models.ImportBatch, error) {
	var row importRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+importColumns+` FROM import_batches WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find import batch: %w", err)
	}
	return row.batch()
}

// List returns a newest-first page of batches.
func (r *ImportRepository) List(ctx context.Context, filter models.ImportFilter) (models.Page[models.ImportBatch], error) {
	var cond conditions
	if filter.Status != nil {
		cond.add("status = ?", *filter.Status)
	}
	if filter.PlanID != "" {
		cond.add("plan_id = ?", filter.PlanID)
	}
	page := filter.PageRequest.Normalize()
	query := fmt.Sprintf("SELECT %s FROM import_batches %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		importColumns, cond.where(), page.PageSize, page.Offset())

	var rows []importRow
	if err := r.db.SelectContext(ctx, &rows, query, cond.args...); err != nil {
		return models.Page[models.ImportBatch]{}, fmt.Errorf("list import batches: %w", err)
	}
	batches := make([]models.ImportBatch, 0, len(rows))
	for _, row := range rows {
		b, err := row.batch()
		if err != nil {
			return models.Page[models.ImportBatch]{}, err
		}
		batches = append(batches, *b)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM import_batches "+cond.where(), cond.args...); err != nil {
		return models.Page[models.ImportBatch]{}, fmt.Errorf("count import batches: %w", err)
	}
	return models.NewPage(batches, total, page), nil
}

// Update stores processing progress and outcome.
func (r *ImportRepository) Update(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	row, err := toImportRow(batch)
	if err != nil {
		return nil, err
	}
	const query = `UPDATE import_batches SET status = :status, total_rows = :total_rows, imported_rows = :imported_rows,
errors = :errors, completed_at = :completed_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return nil, fmt.Errorf("update import batch: %w", err)
	}
	if err := requireAffected(res, "update import batch"); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, batch.ID)
}

// Delete removes a batch record.
func (r *ImportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM import_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete import batch: %w", err)
	}
	return requireAffected(res, "delete import batch")
}
