package memory

import (
	"context"
	"sort"

	"github.com/noah-isme/treasury-api/internal/models"
)

// AggregateStore computes dashboard and report aggregations over a CashFlowStore.
type AggregateStore struct {
	delay    *delay
	cashFlow *CashFlowStore
}

// newAggregateStore wires aggregations to the given cash-flow store.
func newAggregateStore(d *delay, cashFlow *CashFlowStore) *AggregateStore {
	return &AggregateStore{delay: d, cashFlow: cashFlow}
}

func (s *AggregateStore) MonthlyTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.MonthlyTotal, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	byMonth := make(map[string]*models.MonthlyTotal)
	for _, e := range s.cashFlow.snapshot(filter) {
		month := e.Date.Format("2006-01")
		mt, ok := byMonth[month]
		if !ok {
			mt = &models.MonthlyTotal{Month: month}
			byMonth[month] = mt
		}
		if e.Direction == models.FlowInflow {
			mt.Inflow += e.Amount
		} else {
			mt.Outflow += e.Amount
		}
	}
	out := make([]models.MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *AggregateStore) CategoryTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryTotal, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	type key struct {
		category  string
		direction models.FlowDirection
	}
	totals := make(map[key]*models.CategoryTotal)
	for _, e := range s.cashFlow.snapshot(filter) {
		k := key{e.CategoryID, e.Direction}
		ct, ok := totals[k]
		if !ok {
			ct = &models.CategoryTotal{CategoryID: e.CategoryID, Direction: e.Direction}
			totals[k] = ct
		}
		ct.Total += e.Amount
		ct.Count++
	}
	out := make([]models.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *AggregateStore) CategoryMonthTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryMonthTotal, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	type key struct {
		category  string
		direction models.FlowDirection
		month     string
	}
	totals := make(map[key]int64)
	for _, e := range s.cashFlow.snapshot(filter) {
		totals[key{e.CategoryID, e.Direction, e.Date.Format("2006-01")}] += e.Amount
	}
	out := make([]models.CategoryMonthTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, models.CategoryMonthTotal{CategoryID: k.category, Direction: k.direction, Month: k.month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		if out[i].Direction != out[j].Direction {
			return out[i].Direction < out[j].Direction
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
