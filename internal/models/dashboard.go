package models

import "time"

// MonthlyTotal aggregates movements for one calendar month (YYYY-MM).
type MonthlyTotal struct {
	Month   string `db:"month" json:"month"`
	Inflow  int64  `db:"inflow" json:"inflow"`
	Outflow int64  `db:"outflow" json:"outflow"`
}

// Net returns inflow minus outflow.
func (m MonthlyTotal) Net() int64 {
	return m.Inflow - m.Outflow
}

// CategoryTotal aggregates movements for one category.
type CategoryTotal struct {
	CategoryID string        `db:"category_id" json:"category_id"`
	Direction  FlowDirection `db:"direction" json:"direction"`
	Total      int64         `db:"total" json:"total"`
	Count      int           `db:"entry_count" json:"count"`
}

// DashboardMetrics is the headline summary rendered on the dashboard.
type DashboardMetrics struct {
	TotalInflow   int64           `json:"total_inflow"`
	TotalOutflow  int64           `json:"total_outflow"`
	NetFlow       int64           `json:"net_flow"`
	EntryCount    int             `json:"entry_count"`
	PendingDrafts int             `json:"pending_drafts"`
	Monthly       []MonthlyTotal  `json:"monthly"`
	TopCategories []CategoryTotal `json:"top_categories"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// SystemMetrics summarises runtime counters for the metrics snapshot endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AuthzAllowed             uint64    `json:"authz_allowed"`
	AuthzDenied              uint64    `json:"authz_denied"`
	AuthzFailClosed          uint64    `json:"authz_fail_closed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
