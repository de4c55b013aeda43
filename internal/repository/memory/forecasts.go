package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/treasury-api/internal/models"
	"github.com/noah-isme/treasury-api/internal/repository"
)

// ForecastStore keeps scenarios and forecasts in memory.
type ForecastStore struct {
	delay *delay
	now   func() time.Time

	mu        sync.RWMutex
	scenarios *table[models.Scenario]
	forecasts []*models.Forecast
}

// newForecastStore constructs an empty forecast store.
func newForecastStore(d *delay, now func() time.Time) *ForecastStore {
	return &ForecastStore{delay: d, now: now, scenarios: newTable[models.Scenario]()}
}

func (s *ForecastStore) ListScenarios(ctx context.Context, planID string) ([]models.Scenario, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Scenario, 0, s.scenarios.len())
	s.scenarios.each(func(sc models.Scenario) bool {
		if planID == "" || sc.PlanID == planID {
			out = append(out, sc)
		}
		return true
	})
	return out, nil
}

func (s *ForecastStore) FindScenario(ctx context.Context, id string) (*models.Scenario, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios.get(id)
	if !ok {
		return nil, nil
	}
	return &sc, nil
}

func (s *ForecastStore) CreateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *scenario
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := s.now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.scenarios.put(stored.ID, stored)
	return &stored, nil
}

func (s *ForecastStore) UpdateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.scenarios.get(scenario.ID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored := *scenario
	stored.CreatedAt = current.CreatedAt
	stored.CreatedBy = current.CreatedBy
	stored.UpdatedAt = s.now()
	s.scenarios.put(stored.ID, stored)
	return &stored, nil
}

func (s *ForecastStore) DeleteScenario(ctx context.Context, id string) error {
	if err := s.delay.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scenarios.remove(id) {
		return repository.ErrNotFound
	}
	kept := s.forecasts[:0]
	for _, f := range s.forecasts {
		if f.ScenarioID != id {
			kept = append(kept, f)
		}
	}
	s.forecasts = kept
	return nil
}

func (s *ForecastStore) SaveForecast(ctx context.Context, forecast *models.Forecast) (*models.Forecast, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenarios.get(forecast.ScenarioID); !ok {
		return nil, repository.ErrNotFound
	}
	stored := forecast.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.GeneratedAt.IsZero() {
		stored.GeneratedAt = s.now()
	}
	s.forecasts = append(s.forecasts, stored)
	return stored.Clone(), nil
}

func (s *ForecastStore) LatestForecast(ctx context.Context, scenarioID string) (*models.Forecast, error) {
	if err := s.delay.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.forecasts) - 1; i >= 0; i-- {
		if s.forecasts[i].ScenarioID == scenarioID {
			return s.forecasts[i].Clone(), nil
		}
	}
	return nil, nil
}
