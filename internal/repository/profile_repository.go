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

const profileColumns = `id, name, description, is_default, version, created_at, updated_at`

type permissionRow struct {
	ProfileID string          `db:"profile_id"`
	Resource  models.Resource `db:"resource"`
	Action    models.Action   `db:"action"`
}

// ProfileRepository persists profiles with their grants in profile_permissions.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// List returns every profile in creation order.
func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var rows []permissionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT profile_id, resource, action FROM profile_permissions`); err != nil {
		return nil, fmt.Errorf("list profile permissions: %w", err)
	}
	byProfile := make(map[string]models.Permissions, len(profiles))
	for _, row := range rows {
		byProfile[row.ProfileID] = append(byProfile[row.ProfileID], models.Permission{Resource: row.Resource, Actions: []models.Action{row.Action}})
	}
	for i := range profiles {
		profiles[i].Permissions = byProfile[profiles[i].ID].Normalize()
	}
	return profiles, nil
}

// FindByID returns a profile with its permissions.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

// FindByName returns a profile by case-insensitive name.
func (r *ProfileRepository) FindByName(ctx context.Context, name string) (*models.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(name) = LOWER($1)`, strings.TrimSpace(name))
}

// Create inserts a profile and its grants in one transaction.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	stored := profile.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.Version = 1
	stored.CreatedAt, stored.UpdatedAt = now, now
	stored.Permissions = stored.Permissions.Normalize()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create profile tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO profiles (id, name, description, is_default, version, created_at, updated_at)
VALUES (:id, :name, :description, :is_default, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, stored); err != nil {
		return nil, translate(err, "create profile")
	}
	if err := writePermissions(ctx, tx, stored.ID, stored.Permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create profile: %w", err)
	}
	return stored, nil
}

// Update applies name, description and permissions under optimistic locking.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile, expectedVersion int) (*models.Profile, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update profile tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE profiles SET name = $3, description = $4, version = version + 1, updated_at = $5
WHERE id = $1 AND version = $2 RETURNING ` + profileColumns
	var stored models.Profile
	err = tx.GetContext(ctx, &stored, update, profile.ID, expectedVersion, strings.TrimSpace(profile.Name), profile.Description, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1)`, profile.ID); err != nil {
			return nil, fmt.Errorf("check profile: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("update profile %s: %w", profile.ID, ErrVersionConflict)
		}
		return nil, fmt.Errorf("update profile %s: %w", profile.ID, ErrNotFound)
	}
	if err != nil {
		return nil, translate(err, "update profile")
	}

	stored.Permissions = profile.Permissions.Normalize()
	if _, err := tx.ExecContext(ctx, `DELETE FROM profile_permissions WHERE profile_id = $1`, stored.ID); err != nil {
		return nil, fmt.Errorf("clear profile permissions: %w", err)
	}
	if err := writePermissions(ctx, tx, stored.ID, stored.Permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update profile: %w", err)
	}
	return &stored, nil
}

// Delete removes a non-default profile. Profiles still assigned to users fail
// with ErrInUse through the users.profile_id foreign key.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	var isDefault bool
	if err := r.db.GetContext(ctx, &isDefault, `SELECT is_default FROM profiles WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete profile %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete profile: %w", err)
	}
	if isDefault {
		return fmt.Errorf("delete profile %s: %w", id, ErrProtected)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1 AND is_default = FALSE`, id)
	if err != nil {
		return translate(err, "delete profile")
	}
	return requireAffected(res, "delete profile")
}

func (r *ProfileRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	var rows []permissionRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT profile_id, resource, action FROM profile_permissions WHERE profile_id = $1`, profile.ID); err != nil {
		return nil, fmt.Errorf("find profile permissions: %w", err)
	}
	perms := make(models.Permissions, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, models.Permission{Resource: row.Resource, Actions: []models.Action{row.Action}})
	}
	profile.Permissions = perms.Normalize()
	return &profile, nil
}

func writePermissions(ctx context.Context, tx *sqlx.Tx, profileID string, perms models.Permissions) error {
	const insert = `INSERT INTO profile_permissions (profile_id, resource, action) VALUES ($1, $2, $3)`
	for _, perm := range perms {
		for _, action := range perm.Actions {
			if _, err := tx.ExecContext(ctx, insert, profileID, perm.Resource, action); err != nil {
				return fmt.Errorf("write profile permission: %w", err)
			}
		}
	}
	return nil
}
