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

// ReferenceStore keeps configuration lookups and settings in memory.
type ReferenceStore struct {
	delay *delay
	now   func() time.Time

	mu       sync.RWMutex
	items    *table[*models.ReferenceItem]
	settings map[string]models.Setting
}

// newReferenceStore constructs an empty reference store.
func newReferenceStore(d *delay, now func() time.Time) *ReferenceStore {
	return &ReferenceStore{
		delay:    d,
		now:      now,
		items:    newTable[*models.ReferenceItem](),
		settings: make(map[string]models.Setting),
	}
}

func (s *ReferenceStore) List(ctx context.Context, filter models.ReferenceFilter) ([]models.ReferenceItem, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.ReferenceItem, 0)
	s.items.each(func(it *models.ReferenceItem) bool {
		switch {
		case filter.Kind != "" && it.Kind != filter.Kind:
		case filter.ParentID != "" && (it.ParentID == nil || *it.ParentID != filter.ParentID):
		case filter.ActiveOnly && !it.Active:
		default:
			out = append(out, *it.Clone())
		}
		return true
	})
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

func (s *ReferenceStore) FindByID(ctx context.Context, id string) (*models.ReferenceItem, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items.get(id)
	if !ok {
		return nil, nil
	}
	return it.Clone(), nil
}

func (s *ReferenceStore) FindByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it := s.byCode(kind, code); it != nil {
		return it.Clone(), nil
	}
	return nil, nil
}

func (s *ReferenceStore) Create(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byCode(item.Kind, item.Code) != nil {
		return nil, repository.ErrConflict
	}
	stored := item.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.items.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ReferenceStore) Update(ctx context.Context, item *models.ReferenceItem) (*models.ReferenceItem, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items.get(item.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if other := s.byCode(item.Kind, item.Code); other != nil && other.ID != item.ID {
		return nil, repository.ErrConflict
	}
	stored := item.Clone()
	stored.Kind = current.Kind
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = s.now()
	s.items.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ReferenceStore) Delete(ctx context.Context, id string) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items.get(id); !ok {
		return repository.ErrNotFound
	}
	inUse := false
	s.items.each(func(it *models.ReferenceItem) bool {
		if it.ParentID != nil && *it.ParentID == id {
			inUse = true
			return false
		}
		return true
	})
	if inUse {
		return repository.ErrInUse
	}
	s.items.remove(id)
	return nil
}

func (s *ReferenceStore) ListSettings(ctx context.Context) ([]models.Setting, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, cloneSetting(st))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *ReferenceStore) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	cp := cloneSetting(st)
	return &cp, nil
}

func (s *ReferenceStore) UpsertSetting(ctx context.Context, setting *models.Setting) (*models.Setting, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneSetting(*setting)
	if stored.Description == nil {
		if prev, ok := s.settings[stored.Key]; ok {
			stored.Description = prev.Description
		}
	}
	stored.UpdatedAt = s.now()
	s.settings[stored.Key] = stored
	out := cloneSetting(stored)
	return &out, nil
}

func (s *ReferenceStore) byCode(kind models.ReferenceKind, code string) *models.ReferenceItem {
	var found *models.ReferenceItem
	s.items.each(func(it *models.ReferenceItem) bool {
		if it.Kind == kind && strings.EqualFold(it.Code, code) {
			found = it
			return false
		}
		return true
	})
	return found
}

func cloneSetting(st models.Setting) models.Setting {
	if st.Description != nil {
		v := *st.Description
		st.Description = &v
	}
	if st.UpdatedBy != nil {
		v := *st.UpdatedBy
		st.UpdatedBy = &v
	}
	return st
}
