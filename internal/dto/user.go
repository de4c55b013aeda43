package dto

import "github.com/noah-isme/treasury-api/internal/models"

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Name       string            `json:"name" validate:"required,max=120"`
	Email      string            `json:"email" validate:"required,email"`
	Password   string            `json:"password" validate:"required,min=8"`
	Role       models.UserRole   `json:"role" validate:"required,oneof=Admin Manager Analyst Viewer"`
	ProfileID  string            `json:"profile_id" validate:"required"`
	Status     models.UserStatus `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Department string            `json:"department" validate:"max=120"`
	Phone      string            `json:"phone" validate:"max=40"`
}

// UpdateUserRequest payload for updating users. Nil fields are left untouched.
type UpdateUserRequest struct {
	Name       *string            `json:"name" validate:"omitempty,min=1,max=120"`
	Email      *string            `json:"email" validate:"omitempty,email"`
	Role       *models.UserRole   `json:"role" validate:"omitempty,oneof=Admin Manager Analyst Viewer"`
	ProfileID  *string            `json:"profile_id" validate:"omitempty,min=1"`
	Status     *models.UserStatus `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Department *string            `json:"department" validate:"omitempty,max=120"`
	Phone      *string            `json:"phone" validate:"omitempty,max=40"`
}

// AssignProfileRequest moves a user to another profile.
type AssignProfileRequest struct {
	ProfileID string `json:"profile_id" validate:"required"`
}
