package dto

// CreateScenarioRequest defines a forecast scenario. Growth rates are monthly
// fractions: 0.02 means +2% per projected month.
type CreateScenarioRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Description   string  `json:"description" validate:"max=500"`
	PlanID        string  `json:"plan_id" validate:"required"`
	InflowGrowth  float64 `json:"inflow_growth" validate:"gte=-1,lte=1"`
	OutflowGrowth float64 `json:"outflow_growth" validate:"gte=-1,lte=1"`
	OpeningCash   int64   `json:"opening_cash"`
}

// UpdateScenarioRequest merges the provided fields into a scenario.
type UpdateScenarioRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	InflowGrowth  *float64 `json:"inflow_growth" validate:"omitempty,gte=-1,lte=1"`
	OutflowGrowth *float64 `json:"outflow_growth" validate:"omitempty,gte=-1,lte=1"`
	OpeningCash   *int64   `json:"opening_cash"`
}

// GenerateForecastRequest runs a scenario. StartMonth (YYYY-MM) defaults to the
// month following the latest recorded movement.
type GenerateForecastRequest struct {
	Months     int    `json:"months" validate:"required,min=1,max=36"`
	StartMonth string `json:"start_month" validate:"omitempty,datetime=2006-01"`
}
