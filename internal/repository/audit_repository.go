package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

const auditColumns = `id, user_id, user_name, action, resource, resource_id, details, ip_address, user_agent, created_at`

// AuditRepository is the append-only audit trail table.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append stores an audit entry, assigning its ULID and timestamp when absent.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = NewAuditID(entry.CreatedAt)
	}
	const query = `INSERT INTO audit_logs (` + auditColumns + `)
VALUES (:id, :user_id, :user_name, :action, :resource, :resource_id, :details, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// List returns a newest-first page of audit entries.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) (models.Page[models.AuditLog], error) {
	var cond conditions
	if filter.UserID != "" {
		cond.add("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		cond.add("action = ?", filter.Action)
	}
	if filter.Resource != "" {
		cond.add("resource = ?", filter.Resource)
	}
	if filter.From != nil {
		cond.add("created_at >= ?", *filter.From)
	}
	if until := filter.Until(); until != nil {
		cond.add("created_at < ?", *until)
	}

	page := filter.PageRequest.Normalize()
	query := fmt.Sprintf("SELECT %s FROM audit_logs %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		auditColumns, cond.where(), page.PageSize, page.Offset())

	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, cond.args...); err != nil {
		return models.Page[models.AuditLog]{}, fmt.Errorf("list audit logs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM audit_logs "+cond.where(), cond.args...); err != nil {
		return models.Page[models.AuditLog]{}, fmt.Errorf("count audit logs: %w", err)
	}
	return models.NewPage(entries, total, page), nil
}
