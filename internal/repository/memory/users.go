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

// UserStore keeps user accounts in memory.
type UserStore struct {
	delay *delay
	now   func() time.Time
	// profiles enforces the profile reference like the users.profile_id
	// foreign key. Lock order is profiles before users.
	profiles *ProfileStore

	mu   sync.RWMutex
	rows *table[*models.User]
}

// newUserStore constructs an empty user store.
func newUserStore(d *delay, now func() time.Time) *UserStore {
	return &UserStore{delay: d, now: now, rows: newTable[*models.User]()}
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.rows.get(id)
	if !ok {
		return nil, nil
	}
	return user.Clone(), nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user := s.byEmail(email); user != nil {
		return user.Clone(), nil
	}
	return nil, nil
}

func (s *UserStore) List(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	if err := s.delay.wait(ctx); err != nil {
		return models.Page[models.User]{}, err
	}
	s.mu.RLock()
	matched := make([]models.User, 0, s.rows.len())
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	s.rows.each(func(u *models.User) bool {
		switch {
		case filter.Role != nil && u.Role != *filter.Role:
		case filter.Status != nil && u.Status != *filter.Status:
		case filter.ProfileID != "" && u.ProfileID != filter.ProfileID:
		case search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(strings.ToLower(u.Email), search):
		default:
			matched = append(matched, *u.Clone())
		}
		return true
	})
	s.mu.RUnlock()

	sortUsers(matched, filter.SortBy, filter.SortOrder)
	return models.Paginate(matched, filter.PageRequest), nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	release := s.holdProfile()
	defer release()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byEmail(user.Email) != nil {
		return nil, repository.ErrConflict
	}
	if !s.profileExists(user.ProfileID) {
		return nil, repository.ErrInUse
	}
	stored := user.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *UserStore) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	release := s.holdProfile()
	defer release()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows.get(user.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if other := s.byEmail(user.Email); other != nil && other.ID != user.ID {
		return nil, repository.ErrConflict
	}
	if user.ProfileID != current.ProfileID && !s.profileExists(user.ProfileID) {
		return nil, repository.ErrInUse
	}
	stored := user.Clone()
	stored.PasswordHash = current.PasswordHash
	stored.LastLogin = current.LastLogin
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = s.now()
	s.rows.put(stored.ID, stored)
	return stored.Clone(), nil
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
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

func (s *UserStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return s.mutate(ctx, id, func(u *models.User) {
		u.LastLogin = &ts
		u.UpdatedAt = ts
	})
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return s.mutate(ctx, id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = updatedAt
	})
}

func (s *UserStore) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if err := s.delay.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	s.rows.each(func(u *models.User) bool {
		if u.ProfileID == profileID {
			count++
		}
		return true
	})
	return count, nil
}

// referencing reports whether a user points at profileID. Callers hold s.mu.
func (s *UserStore) referencing(profileID string) bool {
	found := false
	s.rows.each(func(u *models.User) bool {
		found = u.ProfileID == profileID
		return !found
	})
	return found
}

// holdProfile read-locks the profile table so a referenced profile cannot be
// deleted while a user write is in flight.
func (s *UserStore) holdProfile() func() {
	if s.profiles == nil {
		return func() {}
	}
	s.profiles.mu.RLock()
	return s.profiles.mu.RUnlock
}

// profileExists must run under holdProfile. An empty id has nothing to check.
func (s *UserStore) profileExists(id string) bool {
	if s.profiles == nil || id == "" {
		return true
	}
	_, ok := s.profiles.rows.get(id)
	return ok
}

func (s *UserStore) mutate(ctx context.Context, id string, fn func(*models.User)) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.rows.get(id)
	if !ok {
		return repository.ErrNotFound
	}
	fn(user)
	return nil
}

func (s *UserStore) byEmail(email string) *models.User {
	var found *models.User
	s.rows.each(func(u *models.User) bool {
		if strings.EqualFold(u.Email, email) {
			found = u
			return false
		}
		return true
	})
	return found
}

func sortUsers(users []models.User, sortBy, order string) {
	desc := !strings.EqualFold(order, "asc")
	var less func(a, b models.User) bool
	switch sortBy {
	case "name":
		less = func(a, b models.User) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "email":
		less = func(a, b models.User) bool { return strings.ToLower(a.Email) < strings.ToLower(b.Email) }
	case "updated_at":
		less = func(a, b models.User) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		less = func(a, b models.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(users, func(i, j int) bool {
		if desc {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
}
