package dto

import "time"

// ReportQuery selects the months and plan of a treasury report. Both dates are
// required and inclusive.
type ReportQuery struct {
	PlanID string    `form:"plan_id"`
	From   time.Time `form:"from" time_format:"2006-01-02" binding:"required"`
	To     time.Time `form:"to" time_format:"2006-01-02" binding:"required"`
}
