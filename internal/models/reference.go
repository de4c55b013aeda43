package models

import "time"

// ReferenceKind enumerates the configuration aggregates managed under settings.
type ReferenceKind string

const (
	ReferenceCategory ReferenceKind = "category"
	ReferenceRubrique ReferenceKind = "rubrique"
	ReferencePeriod   ReferenceKind = "period"
	ReferencePlan     ReferenceKind = "plan"
	ReferencePole     ReferenceKind = "pole"
)

// Valid reports whether the kind is known.
func (k ReferenceKind) Valid() bool {
	switch k {
	case ReferenceCategory, ReferenceRubrique, ReferencePeriod, ReferencePlan, ReferencePole:
		return true
	}
	return false
}

// ReferenceItem is a configurable lookup value: a category, a rubrique nested under
// a category, an accounting period, a treasury plan or an organisational pole.
type ReferenceItem struct {
	ID        string         `db:"id" json:"id"`
	Kind      ReferenceKind  `db:"kind" json:"kind"`
	Code      string         `db:"code" json:"code"`
	Name      string         `db:"name" json:"name"`
	ParentID  *string        `db:"parent_id" json:"parent_id,omitempty"`
	Direction *FlowDirection `db:"direction" json:"direction,omitempty"`
	StartsOn  *time.Time     `db:"starts_on" json:"starts_on,omitempty"`
	EndsOn    *time.Time     `db:"ends_on" json:"ends_on,omitempty"`
	Closed    bool           `db:"closed" json:"closed"`
	Active    bool           `db:"active" json:"active"`
	SortOrder int            `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy.
func (r *ReferenceItem) Clone() *ReferenceItem {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ParentID != nil {
		v := *r.ParentID
		cp.ParentID = &v
	}
	if r.Direction != nil {
		v := *r.Direction
		cp.Direction = &v
	}
	if r.StartsOn != nil {
		v := *r.StartsOn
		cp.StartsOn = &v
	}
	if r.EndsOn != nil {
		v := *r.EndsOn
		cp.EndsOn = &v
	}
	return &cp
}

// ReferenceFilter narrows a reference listing.
type ReferenceFilter struct {
	Kind       ReferenceKind
	ParentID   string
	ActiveOnly bool
}

// Setting is a key/value application setting (currency, fiscal year start, ...).
type Setting struct {
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description *string   `db:"description" json:"description,omitempty"`
	UpdatedBy   *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
