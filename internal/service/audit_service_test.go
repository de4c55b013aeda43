package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository/memory"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

func TestAuditListPaginates(t *testing.T) {
	store := memory.NewStore(memory.Options{})
	svc := NewAuditService(store.Audit, nil)
	ctx := context.Background()

	for i := 0; i < 23; i++ {
		svc.Record(ctx, adminActor(), models.AuditActionEntryCreate, string(models.ResourceSaisie), fmt.Sprintf("entry-%d", i), "")
	}

	page, err := svc.List(ctx, models.AuditFilter{PageRequest: models.PageRequest{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	assert.Len(t, page.Data, 20)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	last, err := svc.List(ctx, models.AuditFilter{PageRequest: models.PageRequest{Page: 2, PageSize: 20}})
	require.NoError(t, err)
	assert.Len(t, last.Data, 3)
}

func TestAuditListRejectsInvertedRange(t *testing.T) {
	svc := NewAuditService(memory.NewStore(memory.Options{}).Audit, nil)
	from, to := time.Now(), time.Now().Add(-time.Hour)

	_, err := svc.List(context.Background(), models.AuditFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuditRecordOnNilService(t *testing.T) {
	var svc *AuditService
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), adminActor(), models.AuditActionLogin, "auth", "", "")
	})
}
