package dto

import "time"

// DashboardQuery scopes dashboard metrics. Dates are inclusive.
type DashboardQuery struct {
	PlanID string     `form:"plan_id"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
}
