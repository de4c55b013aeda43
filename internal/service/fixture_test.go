package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

var fixedNow = time.Date(2024, time.June, 20, 9, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *repository.Store {
	t.Helper()
	return memory.NewStore(memory.Options{Seed: true, Now: func() time.Time { return fixedNow }})
}

func adminActor() models.Actor {
	return models.Actor{UserID: memory.SeedAdminUserID, UserName: "Kouadio Admin", IP: "10.0.0.1"}
}

func seededUser(t *testing.T, store *repository.Store, id string) *models.User {
	t.Helper()
	u, err := store.Users.FindByID(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("seeded user %s: %v", id, err)
	}
	return u
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// fakeCache is an in-process CacheRepository.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for key := range c.data {
		if key == pattern || (wildcard && strings.HasPrefix(key, prefix)) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// profileReaderFunc adapts a function to the profile lookup interfaces.
type profileReaderFunc func(ctx context.Context, id string) (*models.Profile, error)

func (f profileReaderFunc) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	return f(ctx, id)
}
