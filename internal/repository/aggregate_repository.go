package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

// AggregateRepository runs dashboard and report aggregations in SQL.
type AggregateRepository struct {
	db *sqlx.DB
}

// NewAggregateRepository constructs the repository.
func NewAggregateRepository(db *sqlx.DB) *AggregateRepository {
	return &AggregateRepository{db: db}
}

// MonthlyTotals sums inflows and outflows per calendar month.
func (r *AggregateRepository) MonthlyTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.MonthlyTotal, error) {
	cond := cashFlowConditions(filter)
	query := fmt.Sprintf(`SELECT TO_CHAR(entry_date, 'YYYY-MM') AS month,
COALESCE(SUM(CASE WHEN direction = 'inflow' THEN amount ELSE 0 END), 0) AS inflow,
COALESCE(SUM(CASE WHEN direction = 'outflow' THEN amount ELSE 0 END), 0) AS outflow
FROM cash_flow_entries %s GROUP BY month ORDER BY month ASC`, cond.where())

	totals := make([]models.MonthlyTotal, 0)
	if err := r.db.SelectContext(ctx, &totals, query, cond.args...); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return totals, nil
}

// CategoryTotals sums entries per category and direction, largest first.
func (r *AggregateRepository) CategoryTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryTotal, error) {
	cond := cashFlowConditions(filter)
	query := fmt.Sprintf(`SELECT category_id, direction, SUM(amount) AS total, COUNT(*) AS entry_count
FROM cash_flow_entries %s GROUP BY category_id, direction ORDER BY total DESC, category_id ASC`, cond.where())

	totals := make([]models.CategoryTotal, 0)
	if err := r.db.SelectContext(ctx, &totals, query, cond.args...); err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}

// CategoryMonthTotals sums entries per category, direction and month.
func (r *AggregateRepository) CategoryMonthTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryMonthTotal, error) {
	cond := cashFlowConditions(filter)
	query := fmt.Sprintf(`SELECT category_id, direction, TO_CHAR(entry_date, 'YYYY-MM') AS month, SUM(amount) AS total
FROM cash_flow_entries %s GROUP BY category_id, direction, month ORDER BY category_id ASC, direction ASC, month ASC`, cond.where())

	totals := make([]models.CategoryMonthTotal, 0)
	if err := r.db.SelectContext(ctx, &totals, query, cond.args...); err != nil {
		return nil, fmt.Errorf("category month totals: %w", err)
	}
	return totals, nil
}
