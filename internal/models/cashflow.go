package models

import "time"

// FlowDirection tells whether money enters or leaves the treasury.
type FlowDirection string

const (
	FlowInflow  FlowDirection = "inflow"
	FlowOutflow FlowDirection = "outflow"
)

// EntryStatus tracks the validation state of a cash-flow entry.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusValidated EntryStatus = "validated"
)

// CashFlowEntry is a planned or realised treasury movement. Amounts are in the
// smallest unit of Currency.
type CashFlowEntry struct {
	ID          string        `db:"id" json:"id"`
	PlanID      string        `db:"plan_id" json:"plan_id"`
	CategoryID  string        `db:"category_id" json:"category_id"`
	RubriqueID  string        `db:"rubrique_id" json:"rubrique_id,omitempty"`
	PoleID      string        `db:"pole_id" json:"pole_id,omitempty"`
	PeriodID    string        `db:"period_id" json:"period_id,omitempty"`
	Direction   FlowDirection `db:"direction" json:"direction"`
	Amount      int64         `db:"amount" json:"amount"`
	Currency    string        `db:"currency" json:"currency"`
	Date        time.Time     `db:"entry_date" json:"date"`
	Description string        `db:"description" json:"description"`
	Status      EntryStatus   `db:"status" json:"status"`
	ImportID    string        `db:"import_id" json:"import_id,omitempty"`
	CreatedBy   string        `db:"created_by" json:"created_by"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Signed returns the amount with outflows negative.
func (e CashFlowEntry) Signed() int64 {
	if e.Direction == FlowOutflow {
		return -e.Amount
	}
	return e.Amount
}

// CashFlowFilter narrows cash-flow listings and aggregations.
type CashFlowFilter struct {
	PlanID     string
	CategoryID string
	PeriodID   string
	PoleID     string
	Direction  *FlowDirection
	Status     *EntryStatus
	From       *time.Time
	To         *time.Time
	Search     string
	PageRequest
}

// Matches applies the non-paging criteria to an entry.
func (f CashFlowFilter) Matches(e CashFlowEntry) bool {
	if f.PlanID != "" && e.PlanID != f.PlanID {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.PeriodID != "" && e.PeriodID != f.PeriodID {
		return false
	}
	if f.PoleID != "" && e.PoleID != f.PoleID {
		return false
	}
	if f.Direction != nil && e.Direction != *f.Direction {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}
