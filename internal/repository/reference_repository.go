package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

const referenceColumns = `id, kind, code, name, parent_id, direction, starts_on, ends_on, closed, active, sort_order, created_at, updated_at`

// ReferenceRepository persists reference items and settings.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// List returns reference items ordered by kind then sort order.
func (r *ReferenceRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error) {
	var cond conditions
	if filter.Kind != "" {
		cond.add("kind = ?", filter.Kind)
	}
	if filter.ParentID != "" {
		cond.add("parent_id = ?", filter.ParentID)
	}
	if filter.ActiveOnly {
		cond.add("active = ?", true)
	}
	query := fmt.Sprintf("SELECT %s FROM reference_items %s ORDER BY kind ASC, sort_order ASC, code ASC", referenceColumns, cond.where())

	items := make([]models.ReferenceItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, cond.args...); err != nil {
		return nil, fmt.Errorf("list reference items: %w", err)
	}
	return items, nil
}

// FindByID fetches a reference item.
func (r *ReferenceRepository) FindByID(ctx context.Context, id string) (*models.ReferenceItem, error) {
	return r.findOne(ctx, `SELECT `+referenceColumns+` FROM reference_items WHERE id = $1`, id)
}

// FindByCode fetches a reference item by kind and case-insensitive code.
func (r *ReferenceRepository) FindByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error) {
	return r.findOne(ctx, `SELECT `+referenceColumns+` FROM reference_items WHERE kind = $1 AND LOWER(code) = LOWER($2)`, kind, code)
}

// Create inserts a reference item.
func (r *ReferenceRepository) Create(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error) {
	stored := item.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	const query = `INSERT INTO reference_items (` + referenceColumns + `)
VALUES (:id, :kind, :code, :name, :parent_id, :direction, :starts_on, :ends_on, :closed, :active, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, stored); err != nil {
		return nil, translate(err, "create reference item")
	}
	return stored, nil
}

// Update rewrites the mutable fields of a reference item. Kind is immutable.
func (r *ReferenceRepository) Update(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error) {
	stored := item.Clone()
	stored.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reference_items SET code = :code, name = :name, parent_id = :parent_id, direction = :direction,
starts_on = :starts_on, ends_on = :ends_on, closed = :closed, active = :active, sort_order = :sort_order, updated_at = :updated_at
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, stored)
	if err != nil {
		return nil, translate(err, "update reference item")
	}
	if err := requireAffected(res, "update reference item"); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, stored.ID)
}

// Delete removes a reference item that has no children.
func (r *ReferenceRepository) Delete(ctx context.Context, id string) error {
	var children int
	if err := r.db.GetContext(ctx, &children, `SELECT COUNT(*) FROM reference_items WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("count reference children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("delete reference item %s: %w", id, ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM reference_items WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete reference item")
	}
	return requireAffected(res, "delete reference item")
}

// ListSettings returns every setting ordered by key.
func (r *ReferenceRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings := make([]models.Setting, 0)
	if err := r.db.SelectContext(ctx, &settings, `SELECT key, value, description, updated_by, updated_at FROM settings ORDER BY key ASC`); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// GetSetting fetches a single setting by key.
func (r *ReferenceRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, `SELECT key, value, description, updated_by, updated_at FROM settings WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &setting, nil
}

// UpsertSetting inserts or updates a setting. A nil description keeps the stored one.
func (r *ReferenceRepository) UpsertSetting(ctx context.Context, setting *models.Setting) (*models.Setting, error) {
	stored := *setting
	stored.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO settings (key, value, description, updated_by, updated_at)
VALUES (:key, :value, :description, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, description = COALESCE(EXCLUDED.description, settings.description),
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, &stored); err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}
	return r.GetSetting(ctx, stored.Key)
}

func (r *ReferenceRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.ReferenceItem, error) {
	var item models.ReferenceItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reference item: %w", err)
	}
	return &item, nil
}
