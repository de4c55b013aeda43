package models

import "time"

// ReportLine is one category row of a treasury report.
type ReportLine struct {
	CategoryID   string           `json:"category_id"`
	CategoryName string           `json:"category_name"`
	Direction    FlowDirection    `json:"direction"`
	ByMonth      map[string]int64 `json:"by_month"`
	Total        int64            `json:"total"`
}

// Report is a month × category summary of cash flows.
type Report struct {
	PlanID       string       `json:"plan_id,omitempty"`
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	Months       []string     `json:"months"`
	Lines        []ReportLine `json:"lines"`
	TotalInflow  int64        `json:"total_inflow"`
	TotalOutflow int64        `json:"total_outflow"`
	NetFlow      int64        `json:"net_flow"`
	GeneratedAt  time.Time    `json:"generated_at"`
}

// CategoryMonthTotal is one category × month aggregate feeding a report.
type CategoryMonthTotal struct {
	CategoryID string        `db:"category_id"`
	Direction  FlowDirection `db:"direction"`
	Month      string        `db:"month"`
	Total      int64         `db:"total"`
}
