package models

import "time"

// Scenario parameterises a forecast run.
type Scenario struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	PlanID        string    `db:"plan_id" json:"plan_id"`
	InflowGrowth  float64   `db:"inflow_growth" json:"inflow_growth"`
	OutflowGrowth float64   `db:"outflow_growth" json:"outflow_growth"`
	OpeningCash   int64     `db:"opening_cash" json:"opening_cash"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month          string `json:"month"`
	Inflow         int64  `json:"inflow"`
	Outflow        int64  `json:"outflow"`
	Net            int64  `json:"net"`
	ClosingBalance int64  `json:"closing_balance"`
}

// Forecast is the stored result of a scenario run.
type Forecast struct {
	ID          string          `db:"id" json:"id"`
	ScenarioID  string          `db:"scenario_id" json:"scenario_id"`
	Months      int             `db:"months" json:"months"`
	StartMonth  string          `db:"start_month" json:"start_month"`
	Points      []ForecastPoint `db:"-" json:"points"`
	GeneratedBy string          `db:"generated_by" json:"generated_by"`
	GeneratedAt time.Time       `db:"generated_at" json:"generated_at"`
}

// Clone returns a deep copy.
func (f *Forecast) Clone() *Forecast {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Points = append([]ForecastPoint(nil), f.Points...)
	return &cp
}
