package models

import "time"

// Profile is a named, reusable bundle of resource grants assignable to users.
type Profile struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	Permissions Permissions `db:"-" json:"permissions"`
	IsDefault   bool        `db:"is_default" json:"is_default"`
	Version     int         `db:"version" json:"version"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so callers cannot alias stored state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Permissions = p.Permissions.Clone()
	return &cp
}
