package dto

import "github.com/noah-isme/treasury-api/internal/models"

// CreateProfileRequest creates an empty, non-default profile.
type CreateProfileRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateProfileRequest merges the provided fields into a profile. ExpectedVersion,
// when set, must match the stored version.
type UpdateProfileRequest struct {
	Name            *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Description     *string             `json:"description" validate:"omitempty,max=500"`
	Permissions     []models.Permission `json:"permissions"`
	ExpectedVersion *int                `json:"expected_version" validate:"omitempty,min=1"`
}

// SetPermissionRequest toggles one action on one resource.
type SetPermissionRequest struct {
	Resource string `json:"resource" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Granted  *bool  `json:"granted" validate:"required"`
}

// SetResourceRequest grants or clears every action on a resource.
type SetResourceRequest struct {
	Resource string `json:"resource" validate:"required"`
	Granted  *bool  `json:"granted" validate:"required"`
}

// DuplicateProfileRequest clones a profile under a new name.
type DuplicateProfileRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
