package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
)

func TestAuditAppendAssignsULID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{UserID: "u1", Action: models.AuditActionLogin, Resource: "auth"}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Len(t, entry.ID, 26)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListFiltersAndPages(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	now := time.Now()
	cols := []string{"id", "user_id", "user_name", "action", "resource", "resource_id", "details", "ip_address", "user_agent", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE user_id = $1 AND action = $2 ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1", models.AuditActionLogin).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("01H", "u1", "Awa", models.AuditActionLogin, "auth", nil, "", "127.0.0.1", "", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE user_id = $1 AND action = $2")).
		WithArgs("u1", models.AuditActionLogin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))

	page, err := repo.List(context.Background(), models.AuditFilter{UserID: "u1", Action: models.AuditActionLogin})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListToCoversWholeDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	from := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)
	next := to.AddDate(0, 0, 1)
	cols := []string{"id", "user_id", "user_name", "action", "resource", "resource_id", "details", "ip_address", "user_agent", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE created_at >= $1 AND created_at < $2 ORDER BY")).
		WithArgs(from, next).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE created_at >= $1 AND created_at < $2")).
		WithArgs(from, next).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := repo.List(context.Background(), models.AuditFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
