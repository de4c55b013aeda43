package models

import "time"

// UserRole is the coarse, informational role label carried by a user.
type UserRole string

const (
	RoleAdmin   UserRole = "Admin"
	RoleManager UserRole = "Manager"
	RoleAnalyst UserRole = "Analyst"
	RoleViewer  UserRole = "Viewer"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

// User is an identity record referencing exactly one profile.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	ProfileID    string     `db:"profile_id" json:"profile_id"`
	Status       UserStatus `db:"status" json:"status"`
	Department   string     `db:"department" json:"department,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}

// Clone returns a copy detached from the caller's value.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.LastLogin != nil {
		ts := *u.LastLogin
		cp.LastLogin = &ts
	}
	return &cp
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Status    *UserStatus
	ProfileID string
	Search    string
	SortBy    string
	SortOrder string
	PageRequest
}
