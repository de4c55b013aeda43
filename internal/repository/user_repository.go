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

const userColumns = `id, name, email, password_hash, role, profile_id, status, department, phone, last_login, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, matched case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, ts, ts)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return requireAffected(res, "update last login")
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, "update password")
}

// List returns one page of users matching the filter.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	var cond conditions
	if filter.Role != nil {
		cond.add("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		cond.add("status = ?", *filter.Status)
	}
	if filter.ProfileID != "" {
		cond.add("profile_id = ?", filter.ProfileID)
	}
	if filter.Search != "" {
		cond.add("(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"email":      true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.PageRequest.Normalize()
	listQuery := fmt.Sprintf("SELECT %s FROM users %s ORDER BY %s %s LIMIT %d OFFSET %d",
		userColumns, cond.where(), sortBy, sortOrder, page.PageSize, page.Offset())

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, cond.args...); err != nil {
		return models.Page[models.User]{}, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users "+cond.where(), cond.args...); err != nil {
		return models.Page[models.User]{}, fmt.Errorf("count users: %w", err)
	}

	return models.NewPage(users, total, page), nil
}

// Create inserts a new user and returns the stored record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	const query = `INSERT INTO users (id, name, email, password_hash, role, profile_id, status, department, phone, created_at, updated_at)
VALUES (:id, :name, :email, :password_hash, :role, :profile_id, :status, :department, :phone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, stored); err != nil {
		return nil, translate(err, "create user")
	}
	return stored, nil
}

// Update updates mutable fields of a user. Credentials and login history are untouched.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	stored := user.Clone()
	stored.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET name = :name, email = :email, role = :role, profile_id = :profile_id, status = :status,
department = :department, phone = :phone, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, stored)
	if err != nil {
		return nil, translate(err, "update user")
	}
	if err := requireAffected(res, "update user"); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, stored.ID)
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	return requireAffected(res, "delete user")
}

// CountByProfile returns how many users reference the profile.
func (r *UserRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE profile_id = $1`, profileID); err != nil {
		return 0, fmt.Errorf("count users by profile: %w", err)
	}
	return count, nil
}
