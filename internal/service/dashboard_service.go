package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

type dashboardAggregator interface {
	MonthlyTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.MonthlyTotal, error)
	CategoryTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.CategoryTotal, error)
}

type entryCounter interface {
	List(ctx context.Context, filter models.CashFlowFilter) (models.Page[models.CashFlowEntry], error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	TopCategories int
}

// DashboardService composes the headline treasury metrics.
type DashboardService struct {
	aggregates dashboardAggregator
	entries    entryCounter
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Aggregates dashboardAggregator
	Entries    entryCounter
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TopCategories <= 0 {
		cfg.TopCategories = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		aggregates: params.Aggregates,
		entries:    params.Entries,
		cache:      params.Cache,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		cfg:        cfg,
	}
}

// Metrics returns the dashboard summary and whether it came from cache.
func (s *DashboardService) Metrics(ctx context.Context, q dto.DashboardQuery) (*models.DashboardMetrics, bool, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	key := dashboardCacheKey(q)
	if cached, hit := s.tryCache(ctx, key); hit {
		return cached, true, nil
	}

	metrics, err := s.compose(ctx, q)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, key, metrics)
	return metrics, false, nil
}

func (s *DashboardService) compose(ctx context.Context, q dto.DashboardQuery) (*models.DashboardMetrics, error) {
	filter := models.CashFlowFilter{PlanID: q.PlanID, From: q.From, To: q.To}
	if q.To != nil {
		end := q.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.To = &end
	}

	monthly, err := s.aggregates.MonthlyTotals(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate monthly totals")
	}
	categories, err := s.aggregates.CategoryTotals(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to aggregate category totals")
	}

	metrics := &models.DashboardMetrics{Monthly: monthly, GeneratedAt: s.now()}
	for _, m := range monthly {
		metrics.TotalInflow += m.Inflow
		metrics.TotalOutflow += m.Outflow
	}
	metrics.NetFlow = metrics.TotalInflow - metrics.TotalOutflow
	for _, c := range categories {
		metrics.EntryCount += c.Count
	}
	if len(categories) > s.cfg.TopCategories {
		categories = categories[:s.cfg.TopCategories]
	}
	metrics.TopCategories = categories

	draft := models.EntryStatusDraft
	filter.Status = &draft
	filter.PageRequest = models.PageRequest{Page: 1, PageSize: 1}
	drafts, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count draft entries")
	}
	metrics.PendingDrafts = drafts.Total
	return metrics, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*models.DashboardMetrics, bool) {
	var cached models.DashboardMetrics
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Debug("dashboard cache read failed, recomputing", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func dashboardCacheKey(q dto.DashboardQuery) string {
	day := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("2006-01-02")
	}
	plan := q.PlanID
	if plan == "" {
		plan = "all"
	}
	return fmt.Sprintf("%s%s:%s:%s", dashboardCachePrefix, plan, day(q.From), day(q.To))
}
