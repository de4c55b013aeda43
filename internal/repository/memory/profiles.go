package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// ProfileStore keeps profiles in memory, preserving insertion order for listings.
type ProfileStore struct {
	delay *delay
	now   func() time.Time
	users *UserStore

	mu   sync.RWMutex
	rows *table[*models.Profile]
}

// newProfileStore constructs an empty profile store.
func newProfileStore(d *delay, now func() time.Time) *ProfileStore {
	return &ProfileStore{delay: d, now: now, rows: newTable[*models.Profile]()}
}

func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Profile, 0, s.rows.len())
	s.rows.each(func(p *models.Profile) bool {
		out = append(out, *p.Clone())
		return true
	})
	return out, nil
}

func (s *ProfileStore) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows.get(id)
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (s *ProfileStore) FindByName(ctx context.Context, name string) (*models.Profile, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.byName(name); p != nil {
		return p.Clone(), nil
	}
	return nil, nil
}

func (s *ProfileStore) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byName(profile.Name) != nil {
		return nil, repository.ErrConflict
	}
	stored := profile.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if _, exists := s.rows.get(stored.ID); exists {
		return nil, repository.ErrConflict
	}
	stored.Permissions = stored.Permissions.Normalize()
	stored.Version = 1
	now := s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ProfileStore) Update(ctx context.Context, profile *models.Profile, expectedVersion int) (*models.Profile, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows.get(profile.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	if other := s.byName(profile.Name); other != nil && other.ID != profile.ID {
		return nil, repository.ErrConflict
	}

	stored := current.Clone()
	stored.Name = profile.Name
	stored.Description = profile.Description
	stored.Permissions = profile.Permissions.Normalize()
	stored.Version = current.Version + 1
	stored.UpdatedAt = s.now()
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	if current.IsDefault {
		return repository.ErrProtected
	}
	if s.users != nil {
		s.users.mu.RLock()
		defer s.users.mu.RUnlock()
		if s.users.referencing(id) {
			return repository.ErrInUse
		}
	}
	s.rows.remove(id)
	return nil
}

func (s *ProfileStore) byName(name string) *models.Profile {
	name = strings.TrimSpace(name)
	var found *models.Profile
	s.rows.each(func(p *models.Profile) bool {
		if strings.EqualFold(p.Name, name) {
			found = p
			return false
		}
		return true
	})
	return found
}
