package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/treasury-api/internal/models"
)

const scenarioColumns = `id, name, description, plan_id, inflow_growth, outflow_growth, opening_cash, created_by, created_at, updated_at`

type forecastRow struct {
	models.Forecast
	PointsJSON []byte `db:"points"`
}

// ForecastRepository persists scenarios and generated forecasts.
type ForecastRepository struct {
	db *sqlx.DB
}

// NewForecastRepository constructs the repository.
func NewForecastRepository(db *sqlx.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// ListScenarios returns scenarios, optionally restricted to a plan.
func (r *ForecastRepository) ListScenarios(ctx context.Context, planID string) ([]models.Scenario, error) {
	var cond conditions
	if planID != "" {
		cond.add("plan_id = ?", planID)
	}
	scenarios := make([]models.Scenario, 0)
	query := fmt.Sprintf("SELECT %s FROM scenarios %s ORDER BY created_at ASC", scenarioColumns, cond.where())
	if err := r.db.SelectContext(ctx, &scenarios, query, cond.args...); err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	return scenarios, nil
}

// FindScenario fetches a scenario.
func (r *ForecastRepository) FindScenario(ctx context.Context, id string) (*models.Scenario, error) {
	var sc models.Scenario
	if err := r.db.GetContext(ctx, &sc, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find scenario: %w", err)
	}
	return &sc, nil
}

// CreateScenario inserts a scenario.
func (r *ForecastRepository) CreateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	stored := *scenario
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	const query = `INSERT INTO scenarios (` + scenarioColumns + `)
VALUES (:id, :name, :description, :plan_id, :inflow_growth, :outflow_growth, :opening_cash, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, &stored); err != nil {
		return nil, translate(err, "create scenario")
	}
	return &stored, nil
}

// UpdateScenario rewrites a scenario's parameters.
func (r *ForecastRepository) UpdateScenario(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	stored := *scenario
	stored.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scenarios SET name = :name, description = :description, plan_id = :plan_id, inflow_growth = :inflow_growth,
outflow_growth = :outflow_growth, opening_cash = :opening_cash, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, &stored)
	if err != nil {
		return nil, fmt.Errorf("update scenario: %w", err)
	}
	if err := requireAffected(res, "update scenario"); err != nil {
		return nil, err
	}
	return r.FindScenario(ctx, stored.ID)
}

// DeleteScenario removes a scenario and, by cascade, its forecasts.
func (r *ForecastRepository) DeleteScenario(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scenario: %w", err)
	}
	return requireAffected(res, "delete scenario")
}

// SaveForecast stores a generated forecast.
func (r *ForecastRepository) SaveForecast(ctx context.Context, forecast *models.Forecast) (*models.Forecast, error) {
	stored := forecast.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.GeneratedAt.IsZero() {
		stored.GeneratedAt = time.Now().UTC()
	}
	points, err := json.Marshal(stored.Points)
	if err != nil {
		return nil, fmt.Errorf("encode forecast points: %w", err)
	}
	const query = `INSERT INTO forecasts (id, scenario_id, months, start_month, points, generated_by, generated_at)
VALUES (:id, :scenario_id, :months, :start_month, :points, :generated_by, :generated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, forecastRow{Forecast: *stored, PointsJSON: points}); err != nil {
		if errors.Is(translate(err, ""), ErrInUse) {
			return nil, fmt.Errorf("save forecast: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("save forecast: %w", err)
	}
	return stored, nil
}

// LatestForecast returns the most recent forecast of a scenario.
func (r *ForecastRepository) LatestForecast(ctx context.Context, scenarioID string) (*models.Forecast, error) {
	const query = `SELECT id, scenario_id, months, start_month, points, generated_by, generated_at FROM forecasts
WHERE scenario_id = $1 ORDER BY generated_at DESC LIMIT 1`
	var row forecastRow
	if err := r.db.GetContext(ctx, &row, query, scenarioID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest forecast: %w", err)
	}
	f := row.Forecast
	if err := json.Unmarshal(row.PointsJSON, &f.Points); err != nil {
		return nil, fmt.Errorf("decode forecast points: %w", err)
	}
	return &f, nil
}
