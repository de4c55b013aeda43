package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
)

func TestCacheServiceDisabledIsPermanentMiss(t *testing.T) {
	repo := newFakeCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, grantsKey("p1"), map[string]int{"a": 1}, 0))
	assert.False(t, repo.has(grantsKey("p1")))

	var out map[string]int
	hit, err := svc.Get(ctx, grantsKey("p1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.InvalidateDashboards(ctx))
}

func TestCacheServiceInvalidationScopes(t *testing.T) {
	repo := newFakeCache()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	dashKey := dashboardCacheKey(dto.DashboardQuery{})
	for _, key := range []string{grantsKey("p1"), grantsKey("p2"), dashKey} {
		require.NoError(t, svc.Set(ctx, key, 1, 0))
	}

	require.NoError(t, svc.InvalidateGrants(ctx, "p1"))
	assert.False(t, repo.has(grantsKey("p1")))
	assert.True(t, repo.has(grantsKey("p2")))
	assert.True(t, repo.has(dashKey))

	require.NoError(t, svc.InvalidateDashboards(ctx))
	assert.False(t, repo.has(dashKey))
	assert.True(t, repo.has(grantsKey("p2")))
}

func TestCacheServiceCountsLookups(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newFakeCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var v int
	hit, err := svc.Get(ctx, grantsKey("p1"), &v)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, grantsKey("p1"), 7, 0))
	hit, err = svc.Get(ctx, grantsKey("p1"), &v)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, v)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestNamespaceOf(t *testing.T) {
	assert.Equal(t, "authz", namespaceOf(grantsKey("x")))
	assert.Equal(t, "dashboard", namespaceOf("dashboard:all:-:-"))
	assert.Equal(t, "other", namespaceOf("plain"))
}
