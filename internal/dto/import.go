package dto

import "github.com/noah-isme/treasury-api/internal/models"

// SubmitImportRequest uploads parsed cash-flow rows for asynchronous import.
type SubmitImportRequest struct {
	FileName string             `json:"file_name" validate:"required,max=255"`
	PlanID   string             `json:"plan_id" validate:"required"`
	Rows     []models.ImportRow `json:"rows" validate:"required,min=1,max=5000"`
}
