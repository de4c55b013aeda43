package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// CashFlowStore keeps cash-flow entries in memory.
type CashFlowStore struct {
	delay *delay
	now   func() time.Time

	mu   sync.RWMutex
	rows *table[models.CashFlowEntry]
}

// newCashFlowStore constructs an empty cash-flow store.
func newCashFlowStore(d *delay, now func() time.Time) *CashFlowStore {
	return &CashFlowStore{delay: d, now: now, rows: newTable[models.CashFlowEntry]()}
}

func (s *CashFlowStore) List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error) {
	if err := s.delay.wait(ctx); err != nil {
		return models.Page[models.CashFlowEntry]{}, err
	}
	matched := s.snapshot(filter)
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })
	return models.Paginate(matched, filter.PageRequest), nil
}

func (s *CashFlowStore) FindByID(ctx context.Context, id string) (*models.CashFlowEntry, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rows.get(id)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *CashFlowStore) Create(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.prepare(*entry)
	s.rows.put(stored.ID, stored)
	return &stored, nil
}

func (s *CashFlowStore) CreateBatch(ctx context.Context, entries []models.CashFlowEntry) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		stored := s.prepare(e)
		s.rows.put(stored.ID, stored)
	}
	return nil
}

func (s *CashFlowStore) Update(ctx context.Context, entry *models.CashFlowEntry) (*models.CashFlowEntry, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows.get(entry.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored := *entry
	stored.CreatedAt = current.CreatedAt
	stored.CreatedBy = current.CreatedBy
	stored.ImportID = current.ImportID
	stored.UpdatedAt = s.now()
	s.rows.put(stored.ID, stored)
	return &stored, nil
}

func (s *CashFlowStore) Delete(ctx context.Context, id string) error {
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

func (s *CashFlowStore) DeleteByImport(ctx context.Context, importID string) (int64, error) {
	if err := s.delay.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	s.rows.each(func(e models.CashFlowEntry) bool {
		if e.ImportID == importID {
			ids = append(ids, e.ID)
		}
		return true
	})
	for _, id := range ids {
		s.rows.remove(id)
	}
	return int64(len(ids)), nil
}

func (s *CashFlowStore) CountByReference(ctx context.Context, referenceID string) (int, error) {
	if err := s.delay.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	s.rows.each(func(e models.CashFlowEntry) bool {
		if e.PlanID == referenceID || e.CategoryID == referenceID || e.RubriqueID == referenceID ||
			e.PoleID == referenceID || e.PeriodID == referenceID {
			count++
		}
		return true
	})
	return count, nil
}

// snapshot returns copies of the entries matching filter, ignoring paging.
func (s *CashFlowStore) snapshot(filter models.CashFlowFilter) []models.CashFlowEntry {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CashFlowEntry, 0, s.rows.len())
	s.rows.each(func(e models.CashFlowEntry) bool {
		if filter.Matches(e) && (search == "" || strings.Contains(strings.ToLower(e.Description), search)) {
			out = append(out, e)
		}
		return true
	})
	return out
}

func (s *CashFlowStore) prepare(e models.CashFlowEntry) models.CashFlowEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = models.EntryStatusDraft
	}
	return e
}
