package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

// maxReportMonths caps the width of a report.
const maxReportMonths = 36

type reportAggregator interface {
	CategoryMonthTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryMonthTotal, error)
}

// ReportService builds month × category treasury reports.
type ReportService struct {
	aggregates reportAggregator
	reference  referenceLister
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(aggregates reportAggregator, reference referenceLister, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		aggregates: aggregates,
		reference:  reference,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Generate summarises entries between q.From and q.To per category and month.
// Lines list inflows before outflows, then follow category sort order.
func (s *ReportService) Generate(ctx context.Context, q dto.ReportQuery) (*models.Report, error) {
	if q.From.IsZero() || q.To.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	if q.To.Before(q.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	months := monthsBetween(q.From, q.To)
	if len(months) > maxReportMonths {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reports cover at most 36 months")
	}

	end := q.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
	totals, err := s.aggregates.CategoryMonthTotals(ctx, models.CashFlowFilter{PlanID: q.PlanID, From: &q.From, To: &end})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate report")
	}
	categories, err := s.reference.List(ctx, models.ReferenceFilter{Kind: models.ReferenceCategory})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load categories")
	}
	byID := make(map[string]models.ReferenceItem, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	type lineKey struct {
		category  string
		direction models.FlowDirection
	}
	lines := make(map[lineKey]*models.ReportLine)
	report := &models.Report{PlanID: q.PlanID, From: q.From, To: q.To, Months: months, GeneratedAt: s.now()}
	for _, t := range totals {
		k := lineKey{t.CategoryID, t.Direction}
		line, ok := lines[k]
		if !ok {
			name := t.CategoryID
			if c, found := byID[t.CategoryID]; found {
				name = c.Name
			}
			line = &models.ReportLine{CategoryID: t.CategoryID, CategoryName: name, Direction: t.Direction, ByMonth: make(map[string]int64, len(months))}
			lines[k] = line
		}
		line.ByMonth[t.Month] += t.Total
		line.Total += t.Total
		if t.Direction == models.FlowInflow {
			report.TotalInflow += t.Total
		} else {
			report.TotalOutflow += t.Total
		}
	}
	report.NetFlow = report.TotalInflow - report.TotalOutflow

	report.Lines = make([]models.ReportLine, 0, len(lines))
	for _, line := range lines {
		report.Lines = append(report.Lines, *line)
	}
	sort.Slice(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if a.Direction != b.Direction {
			return a.Direction == models.FlowInflow
		}
		oa, ob := byID[a.CategoryID].SortOrder, byID[b.CategoryID].SortOrder
		if oa != ob {
			return oa < ob
		}
		return a.CategoryName < b.CategoryName
	})
	return report, nil
}

func monthsBetween(from, to time.Time) []string {
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	var months []string
	for !cur.After(last) {
		months = append(months, cur.Format(monthLayout))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
