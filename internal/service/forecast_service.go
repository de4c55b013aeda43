package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/dto"
	"github.com/noah-isme/treasury-api/internal/models"
	appErrors "github.com/noah-isme/treasury-api/pkg/errors"
)

const monthLayout = "2006-01"

type forecastStore interface {
	ListScenarios(ctx context.Context, planID string) ([]models.Scenario, error)
	FindScenario(ctx context.Context, id string) (*models.Scenario, error)
	CreateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error)
	UpdateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
	SaveForecast(ctx context.Context, forecast *models.Forecast) (*models.Forecast, error)
	LatestForecast(ctx context.Context, scenarioID string) (*models.Forecast, error)
}

type monthlyTotaler interface {
	MonthlyTotals(ctx context.Context, filter models.CashFlowFilter) ([]models.MonthlyTotal, error)
}

type referenceFinder interface {
	FindByID(ctx context.Context, id string) (*models.ReferenceItem, error)
}

// ForecastService manages scenarios and projects cash positions from history.
type ForecastService struct {
	store     forecastStore
	history   monthlyTotaler
	reference referenceFinder
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewForecastService constructs a ForecastService.
func NewForecastService(store forecastStore, history monthlyTotaler, reference referenceFinder, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *ForecastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ForecastService{
		store:     store,
		history:   history,
		reference: reference,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListScenarios returns scenarios, optionally for a single plan.
func (s *ForecastService) ListScenarios(ctx context.Context, planID string) ([]models.Scenario, error) {
	scenarios, err := s.store.ListScenarios(ctx, planID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list scenarios")
	}
	return scenarios, nil
}

// GetScenario returns one scenario.
func (s *ForecastService) GetScenario(ctx context.Context, id string) (*models.Scenario, error) {
	sc, err := s.store.FindScenario(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load scenario")
	}
	if sc == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scenario not found")
	}
	return sc, nil
}

// CreateScenario adds a scenario on an existing plan.
func (s *ForecastService) CreateScenario(ctx context.Context, req dto.CreateScenarioRequest, actor models.Actor) (*models.Scenario, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid scenario payload")
	}
	if err := s.requirePlan(ctx, req.PlanID); err != nil {
		return nil, err
	}
	created, err := s.store.CreateScenario(ctx, &models.Scenario{
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		PlanID:        req.PlanID,
		InflowGrowth:  req.InflowGrowth,
		OutflowGrowth: req.OutflowGrowth,
		OpeningCash:   req.OpeningCash,
		CreatedBy:     actor.UserID,
	})
	if err != nil {
		return nil, storeError(err, "scenario", "failed to create scenario")
	}
	return created, nil
}

// UpdateScenario merges the provided fields.
func (s *ForecastService) UpdateScenario(ctx context.Context, id string, req dto.UpdateScenarioRequest) (*models.Scenario, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid scenario payload")
	}
	sc, err := s.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		sc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		sc.Description = strings.TrimSpace(*req.Description)
	}
	if req.InflowGrowth != nil {
		sc.InflowGrowth = *req.InflowGrowth
	}
	if req.OutflowGrowth != nil {
		sc.OutflowGrowth = *req.OutflowGrowth
	}
	if req.OpeningCash != nil {
		sc.OpeningCash = *req.OpeningCash
	}
	updated, err := s.store.UpdateScenario(ctx, sc)
	if err != nil {
		return nil, storeError(err, "scenario", "failed to update scenario")
	}
	return updated, nil
}

// DeleteScenario removes a scenario and its forecasts.
func (s *ForecastService) DeleteScenario(ctx context.Context, id string) error {
	if err := s.store.DeleteScenario(ctx, id); err != nil {
		return storeError(err, "scenario", "failed to delete scenario")
	}
	return nil
}

// Generate projects the scenario over req.Months months and stores the result.
// The baseline is the average monthly inflow and outflow of the plan's history;
// growth compounds monthly from the first projected month.
func (s *ForecastService) Generate(ctx context.Context, scenarioID string, req dto.GenerateForecastRequest, actor models.Actor) (*models.Forecast, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid forecast request")
	}
	sc, err := s.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	history, err := s.history.MonthlyTotals(ctx, models.CashFlowFilter{PlanID: sc.PlanID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load cash-flow history")
	}

	start, err := s.startMonth(req.StartMonth, history)
	if err != nil {
		return nil, err
	}
	forecast := &models.Forecast{
		ScenarioID:  sc.ID,
		Months:      req.Months,
		StartMonth:  start.Format(monthLayout),
		Points:      project(*sc, history, start, req.Months),
		GeneratedBy: actor.UserID,
		GeneratedAt: s.now(),
	}
	saved, err := s.store.SaveForecast(ctx, forecast)
	if err != nil {
		return nil, storeError(err, "scenario", "failed to save forecast")
	}
	s.audit.Record(ctx, actor, models.AuditActionForecastRun, string(models.ResourceForecast), sc.ID,
		fmt.Sprintf("%s: %d months from %s", sc.Name, saved.Months, saved.StartMonth))
	return saved, nil
}

// Latest returns the most recent forecast of a scenario.
func (s *ForecastService) Latest(ctx context.Context, scenarioID string) (*models.Forecast, error) {
	if _, err := s.GetScenario(ctx, scenarioID); err != nil {
		return nil, err
	}
	f, err := s.store.LatestForecast(ctx, scenarioID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load forecast")
	}
	if f == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scenario has not been forecast yet")
	}
	return f, nil
}

func (s *ForecastService) requirePlan(ctx context.Context, planID string) error {
	plan, err := s.reference.FindByID(ctx, planID)
	if err != nil {
		return appErrors.Internal(err, "failed to load plan")
	}
	if plan == nil || plan.Kind != models.ReferencePlan {
		return appErrors.Clone(appErrors.ErrValidation, "plan "+planID+" does not exist")
	}
	return nil
}

func (s *ForecastService) startMonth(raw string, history []models.MonthlyTotal) (time.Time, error) {
	if raw != "" {
		return time.Parse(monthLayout, raw)
	}
	if n := len(history); n > 0 {
		last, err := time.Parse(monthLayout, history[n-1].Month)
		if err != nil {
			return time.Time{}, appErrors.Internal(err, "malformed history month")
		}
		return last.AddDate(0, 1, 0), nil
	}
	now := s.now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0), nil
}

func project(sc models.Scenario, history []models.MonthlyTotal, start time.Time, months int) []models.ForecastPoint {
	var avgIn, avgOut float64
	if n := len(history); n > 0 {
		for _, m := range history {
			avgIn += float64(m.Inflow)
			avgOut += float64(m.Outflow)
		}
		avgIn /= float64(n)
		avgOut /= float64(n)
	}

	points := make([]models.ForecastPoint, 0, months)
	balance := sc.OpeningCash
	for i := 0; i < months; i++ {
		step := float64(i + 1)
		inflow := int64(math.Round(avgIn * math.Pow(1+sc.InflowGrowth, step)))
		outflow := int64(math.Round(avgOut * math.Pow(1+sc.OutflowGrowth, step)))
		balance += inflow - outflow
		points = append(points, models.ForecastPoint{
			Month:          start.AddDate(0, i, 0).Format(monthLayout),
			Inflow:         inflow,
			Outflow:        outflow,
			Net:            inflow - outflow,
			ClosingBalance: balance,
		})
	}
	return points
}
