package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type auditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) (models.Page[models.AuditLog], error)
}

// AuditService writes and reads the append-only audit trail.
type AuditService struct {
	store  auditStore
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(store auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, logger: logger}
}

// Record appends an entry for the actor. Failures are logged, never returned.
func (s *AuditService) Record(ctx context.Context, actor models.Actor, action, resource, resourceID, details string) {
	if s == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:    actor.UserID,
		UserName:  actor.UserName,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.store.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}

// List returns a newest-first page of audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) (models.Page[models.AuditLog], error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return models.Page[models.AuditLog]{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return models.Page[models.AuditLog]{}, appErrors.Internal(err, "failed to list audit logs")
	}
	return page, nil
}
