package models

import "time"

// ImportStatus tracks the processing lifecycle of an import batch.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// ImportRow is one line of an uploaded cash-flow file.
type ImportRow struct {
	Line         int    `json:"line"`
	Date         string `json:"date" validate:"required"`
	CategoryCode string `json:"category_code" validate:"required"`
	RubriqueCode string `json:"rubrique_code,omitempty"`
	PoleCode     string `json:"pole_code,omitempty"`
	Direction    string `json:"direction" validate:"required,oneof=inflow outflow"`
	Amount       int64  `json:"amount" validate:"gt=0"`
	Description  string `json:"description"`
}

// ImportRowError reports why a row was rejected.
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportBatch is the record of an import submission and its outcome.
type ImportBatch struct {
	ID           string           `db:"id" json:"id"`
	FileName     string           `db:"file_name" json:"file_name"`
	PlanID       string           `db:"plan_id" json:"plan_id"`
	Status       ImportStatus     `db:"status" json:"status"`
	TotalRows    int              `db:"total_rows" json:"total_rows"`
	ImportedRows int              `db:"imported_rows" json:"imported_rows"`
	Rows         []ImportRow      `db:"-" json:"-"`
	Errors       []ImportRowError `db:"-" json:"errors"`
	SubmittedBy  string           `db:"submitted_by" json:"submitted_by"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// Clone returns a deep copy.
func (b *ImportBatch) Clone() *ImportBatch {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Rows = append([]ImportRow(nil), b.Rows...)
	cp.Errors = append([]ImportRowError(nil), b.Errors...)
	if b.CompletedAt != nil {
		ts := *b.CompletedAt
		cp.CompletedAt = &ts
	}
	return &cp
}

// ImportFilter narrows an import listing.
type ImportFilter struct {
	Status *ImportStatus
	PlanID string
	PageRequest
}
