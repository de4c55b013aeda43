package dto

import (
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
)

// CreateReferenceRequest creates a category, rubrique, period, plan or pole.
type CreateReferenceRequest struct {
	Kind      models.ReferenceKind  `json:"kind" validate:"required,oneof=category rubrique period plan pole"`
	Code      string                `json:"code" validate:"required,max=40"`
	Name      string                `json:"name" validate:"required,max=120"`
	ParentID  *string               `json:"parent_id"`
	Direction *models.FlowDirection `json:"direction" validate:"omitempty,oneof=inflow outflow"`
	StartsOn  *time.Time            `json:"starts_on"`
	EndsOn    *time.Time            `json:"ends_on"`
	SortOrder int                   `json:"sort_order" validate:"min=0"`
}

// UpdateReferenceRequest merges the provided fields into a reference item.
type UpdateReferenceRequest struct {
	Code      *string               `json:"code" validate:"omitempty,min=1,max=40"`
	Name      *string               `json:"name" validate:"omitempty,min=1,max=120"`
	ParentID  *string               `json:"parent_id"`
	Direction *models.FlowDirection `json:"direction" validate:"omitempty,oneof=inflow outflow"`
	StartsOn  *time.Time            `json:"starts_on"`
	EndsOn    *time.Time            `json:"ends_on"`
	Closed    *bool                 `json:"closed"`
	Active    *bool                 `json:"active"`
	SortOrder *int                  `json:"sort_order" validate:"omitempty,min=0"`
}

// UpsertSettingRequest sets the value of an application setting.
type UpsertSettingRequest struct {
	Value       string  `json:"value" validate:"required,max=500"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}
