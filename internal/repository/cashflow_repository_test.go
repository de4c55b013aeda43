package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/treasury-api/internal/models"
)

func TestCashFlowCreateBatchIsTransactional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCashFlowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cash_flow_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cash_flow_entries").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []models.CashFlowEntry{
		{PlanID: "p", CategoryID: "c", Direction: models.FlowInflow, Amount: 10},
		{PlanID: "p", CategoryID: "c", Direction: models.FlowInflow, Amount: 20},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyTotalsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAggregateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cash_flow_entries WHERE plan_id = $1 GROUP BY month ORDER BY month ASC")).
		WithArgs("plan-2024").
		WillReturnRows(sqlmock.NewRows([]string{"month", "inflow", "outflow"}).
			AddRow("2024-01", 60, 46).
			AddRow("2024-02", 62, 48))

	totals, err := repo.MonthlyTotals(context.Background(), models.CashFlowFilter{PlanID: "plan-2024"})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, int64(14), totals[1].Net())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportFindByIDDecodesErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewImportRepository(db)

	cols := []string{"id", "file_name", "plan_id", "status", "total_rows", "imported_rows", "errors", "submitted_by", "created_at", "completed_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM import_batches WHERE id = $1")).
		WithArgs("imp-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("imp-1", "jan.csv", "plan-2024", "failed", 2, 0, []byte(`[{"line":2,"message":"unknown category"}]`), "u1", nil, nil))

	batch, err := repo.FindByID(context.Background(), "imp-1")
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, models.ImportStatusFailed, batch.Status)
	assert.Equal(t, []models.ImportRowError{{Line: 2, Message: "unknown category"}}, batch.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}
