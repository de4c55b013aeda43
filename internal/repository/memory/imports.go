package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// ImportStore keeps import batches in memory.
type ImportStore struct {
	delay *delay
	now   func() time.Time

	mu   sync.RWMutex
	rows *table[*models.ImportBatch]
}

// newImportStore constructs an empty import store.
func newImportStore(d *delay, now func() time.Time) *ImportStore {
	return &ImportStore{delay: d, now: now, rows: newTable[*models.ImportBatch]()}
}

func (s *ImportStore) Create(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := batch.Clone()
	stored.Rows = nil
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ImportStore) FindByID(ctx context.Context, id string) (*models.ImportBatch, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.rows.get(id)
	if !ok {
		return nil, nil
	}
	return b.Clone(), nil
}

func (s *ImportStore) List(ctx context.Context, filter models.ImportFilter) (models.Page[models.ImportBatch], error) {
	if err := s.delay.wait(ctx); err != nil {
		return models.Page[models.ImportBatch]{}, err
	}
	s.mu.RLock()
	matched := make([]models.ImportBatch, 0, s.rows.len())
	s.rows.each(func(b *models.ImportBatch) bool {
		switch {
		case filter.Status != nil && b.Status != *filter.Status:
		case filter.PlanID != "" && b.PlanID != filter.PlanID:
		default:
			matched = append(matched, *b.Clone())
		}
		return true
	})
	s.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return models.Paginate(matched, filter.PageRequest), nil
}

func (s *ImportStore) Update(ctx context.Context, batch *models.ImportBatch) (*models.ImportBatch, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows.get(batch.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored := batch.Clone()
	stored.Rows = nil
	stored.CreatedAt = current.CreatedAt
	stored.SubmittedBy = current.SubmittedBy
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ImportStore) Delete(ctx context.Context, id string) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rows.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}
