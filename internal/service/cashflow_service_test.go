package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

func newCashFlowFixture(t *testing.T, cache *CacheService) (*CashFlowService, *repository.Store) {
	t.Helper()
	store := seededStore(t)
	return NewCashFlowService(store.CashFlow, store.Reference, cache, NewAuditService(store.Audit, nil), nil, nil), store
}

func entryRequest() dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		PlanID:     memory.SeedPlanID,
		CategoryID: "cat-ventes",
		RubriqueID: "rub-export",
		PoleID:     "pole-dg",
		Direction:  models.FlowInflow,
		Amount:     2_500_000,
		Date:       day(2024, time.May, 12),
	}
}

func closePeriod(t *testing.T, store *repository.Store, id string) {
	t.Helper()
	ctx := context.Background()
	period, err := store.Reference.FindByID(ctx, id)
	require.NoError(t, err)
	period.Closed = true
	_, err = store.Reference.Update(ctx, period)
	require.NoError(t, err)
}

func TestCreateEntryDerivesPeriod(t *testing.T) {
	svc, _ := newCashFlowFixture(t, nil)

	created, err := svc.Create(context.Background(), entryRequest(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, "period-2024-05", created.PeriodID)
	assert.Equal(t, models.EntryStatusDraft, created.Status)
	assert.Equal(t, "XOF", created.Currency)
	assert.Equal(t, memory.SeedAdminUserID, created.CreatedBy)
}

func TestCreateEntryReferenceChecks(t *testing.T) {
	svc, _ := newCashFlowFixture(t, nil)
	ctx := context.Background()

	wrongDirection := entryRequest()
	wrongDirection.Direction = models.FlowOutflow
	_, err := svc.Create(ctx, wrongDirection, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	unknownCategory := entryRequest()
	unknownCategory.CategoryID = "cat-ghost"
	_, err = svc.Create(ctx, unknownCategory, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	foreignRubrique := entryRequest()
	foreignRubrique.CategoryID = "cat-subventions"
	_, err = svc.Create(ctx, foreignRubrique, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	outsidePlan := entryRequest()
	outsidePlan.Date = day(2025, time.January, 3)
	_, err = svc.Create(ctx, outsidePlan, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	noAmount := entryRequest()
	noAmount.Amount = 0
	_, err = svc.Create(ctx, noAmount, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestClosedPeriodRejectsWrites(t *testing.T) {
	svc, store := newCashFlowFixture(t, nil)
	ctx := context.Background()
	closePeriod(t, store, "period-2024-05")

	_, err := svc.Create(ctx, entryRequest(), adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	err = svc.Delete(ctx, "entry-2024-05-1", adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	require.NoError(t, svc.Delete(ctx, "entry-2024-04-1", adminActor()))
}

func TestUpdateEntryMovesPeriod(t *testing.T) {
	svc, _ := newCashFlowFixture(t, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, entryRequest(), adminActor())
	require.NoError(t, err)
	moved := day(2024, time.March, 2)
	updated, err := svc.Update(ctx, created.ID, dto.UpdateEntryRequest{Date: &moved, Amount: ptr(int64(10))}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, "period-2024-03", updated.PeriodID)
	assert.Equal(t, int64(10), updated.Amount)
}

func TestEntryWritesInvalidateDashboard(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newCashFlowFixture(t, NewCacheService(cache, nil, time.Minute, nil, true))
	key := dashboardCachePrefix + "all:-:-"
	require.NoError(t, cache.Set(context.Background(), key, models.DashboardMetrics{}, time.Minute))

	_, err := svc.Create(context.Background(), entryRequest(), adminActor())
	require.NoError(t, err)
	assert.False(t, cache.has(key))
}

func TestListEntriesFilters(t *testing.T) {
	svc, _ := newCashFlowFixture(t, nil)
	ctx := context.Background()
	outflow := models.FlowOutflow

	page, err := svc.List(ctx, models.CashFlowFilter{PlanID: memory.SeedPlanID, Direction: &outflow})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)

	from, to := day(2024, time.May, 1), day(2024, time.April, 1)
	_, err = svc.List(ctx, models.CashFlowFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
