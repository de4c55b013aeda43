package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

func newReferenceFixture(t *testing.T) (*ReferenceService, *repository.Store) {
	t.Helper()
	store := seededStore(t)
	return NewReferenceService(store.Reference, store.CashFlow, NewAuditService(store.Audit, nil), nil, nil), store
}

func TestCreateCategoryNeedsDirection(t *testing.T) {
	svc, _ := newReferenceFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferenceCategory, Code: "enc-divers", Name: "Divers"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferenceCategory, Code: "enc-divers", Name: "Divers", Direction: ptr(models.FlowInflow)}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, "ENC-DIVERS", created.Code)
	assert.True(t, created.Active)
}

func TestCreateReferenceDuplicateCode(t *testing.T) {
	svc, _ := newReferenceFixture(t)

	_, err := svc.Create(context.Background(), dto.CreateReferenceRequest{Kind: models.ReferencePole, Code: "daf", Name: "Doublon"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestCreateRubriqueNeedsCategoryParent(t *testing.T) {
	svc, _ := newReferenceFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferenceRubrique, Code: "R1", Name: "Orpheline"}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferenceRubrique, Code: "R1", Name: "Sous pôle", ParentID: ptr("pole-dg")}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferenceRubrique, Code: "R1", Name: "Primes", ParentID: ptr("cat-salaires")}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, "cat-salaires", *created.ParentID)
}

func TestCreatePeriodChecksDates(t *testing.T) {
	svc, _ := newReferenceFixture(t)
	start, end := day(2025, 1, 31), day(2025, 1, 1)

	_, err := svc.Create(context.Background(), dto.CreateReferenceRequest{Kind: models.ReferencePeriod, Code: "2025-01", Name: "Janvier", StartsOn: &start, EndsOn: &end}, adminActor())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDeleteReferenceInUse(t *testing.T) {
	svc, _ := newReferenceFixture(t)
	ctx := context.Background()

	err := svc.Delete(ctx, "pole-daf", adminActor())
	assert.ErrorIs(t, err, appErrors.ErrBusinessRule)

	created, err := svc.Create(ctx, dto.CreateReferenceRequest{Kind: models.ReferencePole, Code: "DRH", Name: "Ressources humaines"}, adminActor())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID, adminActor()))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestListRejectsUnknownKind(t *testing.T) {
	svc, _ := newReferenceFixture(t)

	_, err := svc.List(context.Background(), models.ReferenceFilter{Kind: "budget"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	poles, err := svc.List(context.Background(), models.ReferenceFilter{Kind: models.ReferencePole})
	require.NoError(t, err)
	assert.Len(t, poles, 2)
}

func TestUpsertSetting(t *testing.T) {
	svc, store := newReferenceFixture(t)
	ctx := context.Background()

	saved, err := svc.UpsertSetting(ctx, "currency", dto.UpsertSettingRequest{Value: "EUR"}, adminActor())
	require.NoError(t, err)
	assert.Equal(t, "EUR", saved.Value)

	got, err := svc.GetSetting(ctx, "currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Value)

	_, err = svc.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	logs, err := store.Audit.List(ctx, models.AuditFilter{Action: models.AuditActionSettingsUpdate})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Total)
}
