package dto

import (
	"time"

	"github.com/noah-isme/treasury-api/internal/models"
)

// CreateEntryRequest records a cash-flow movement.
type CreateEntryRequest struct {
	PlanID      string               `json:"plan_id" validate:"required"`
	CategoryID  string               `json:"category_id" validate:"required"`
	RubriqueID  string               `json:"rubrique_id"`
	PoleID      string               `json:"pole_id"`
	PeriodID    string               `json:"period_id"`
	Direction   models.FlowDirection `json:"direction" validate:"required,oneof=inflow outflow"`
	Amount      int64                `json:"amount" validate:"gt=0"`
	Currency    string               `json:"currency" validate:"omitempty,len=3"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description" validate:"max=255"`
	Status      models.EntryStatus   `json:"status" validate:"omitempty,oneof=draft validated"`
}

// UpdateEntryRequest merges the provided fields into an entry.
type UpdateEntryRequest struct {
	CategoryID  *string               `json:"category_id" validate:"omitempty,min=1"`
	RubriqueID  *string               `json:"rubrique_id"`
	PoleID      *string               `json:"pole_id"`
	PeriodID    *string               `json:"period_id"`
	Direction   *models.FlowDirection `json:"direction" validate:"omitempty,oneof=inflow outflow"`
	Amount      *int64                `json:"amount" validate:"omitempty,gt=0"`
	Date        *time.Time            `json:"date"`
	Description *string               `json:"description" validate:"omitempty,max=255"`
	Status      *models.EntryStatus   `json:"status" validate:"omitempty,oneof=draft validated"`
}
