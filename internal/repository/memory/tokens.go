package memory

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// TokenStore keeps refresh tokens in memory, indexed by token string.
type TokenStore struct {
	delay *delay

	mu      sync.RWMutex
	byToken map[string]*models.RefreshToken
}

// newTokenStore constructs an empty token store.
func newTokenStore(d *delay) *TokenStore {
	return &TokenStore{delay: d, byToken: make(map[string]*models.RefreshToken)}
}

func (s *TokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[token.Token]; exists {
		return repository.ErrConflict
	}
	cp := cloneToken(token)
	s.byToken[cp.Token] = cp
	return nil
}

func (s *TokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.byToken[token]
	if !ok {
		return nil, nil
	}
	return cloneToken(rt), nil
}

func (s *TokenStore) Revoke(ctx context.Context, id string, at time.Time) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.byToken {
		if rt.ID == id {
			revoke(rt, at)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.byToken {
		if rt.UserID == userID && !rt.Revoked {
			revoke(rt, at)
		}
	}
	return nil
}

func (s *TokenStore) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := s.delay.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var pruned int64
	for key, rt := range s.byToken {
		if rt.Revoked || rt.ExpiresAt.Before(before) {
			delete(s.byToken, key)
			pruned++
		}
	}
	return pruned, nil
}

func revoke(rt *models.RefreshToken, at time.Time) {
	rt.Revoked = true
	rt.RevokedAt = &at
}

func cloneToken(rt *models.RefreshToken) *models.RefreshToken {
	cp := *rt
	if rt.RevokedAt != nil {
		ts := *rt.RevokedAt
		cp.RevokedAt = &ts
	}
	return &cp
}
