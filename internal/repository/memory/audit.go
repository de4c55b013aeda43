package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// AuditStore is a bounded, append-only history. Once full, the oldest entry is dropped.
type AuditStore struct {
	delay *delay
	max   int
	now   func() time.Time

	mu      sync.RWMutex
	entries []models.AuditLog
}

// newAuditStore constructs an audit history holding at most max entries.
func newAuditStore(d *delay, max int, now func() time.Time) *AuditStore {
	return &AuditStore{delay: d, max: max, now: now}
}

func (s *AuditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	stored := entry.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.ID == "" {
		stored.ID = repository.NewAuditID(stored.CreatedAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *stored)
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append([]models.AuditLog(nil), s.entries[over:]...)
	}
	entry.ID, entry.CreatedAt = stored.ID, stored.CreatedAt
	return nil
}

func (s *AuditStore) List(ctx context.Context, filter models.AuditFilter) (models.Page[models.AuditLog], error) {
	if err := s.delay.wait(ctx); err != nil {
		return models.Page[models.AuditLog]{}, err
	}
	until := filter.Until()
	s.mu.RLock()
	matched := make([]models.AuditLog, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		switch {
		case filter.UserID != "" && e.UserID != filter.UserID:
		case filter.Action != "" && e.Action != filter.Action:
		case filter.Resource != "" && e.Resource != filter.Resource:
		case filter.From != nil && e.CreatedAt.Before(*filter.From):
		case until != nil && !e.CreatedAt.Before(*until):
		default:
			matched = append(matched, *e.Clone())
		}
	}
	s.mu.RUnlock()
	return models.Paginate(matched, filter.PageRequest), nil
}
