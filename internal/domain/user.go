package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RoleOperator    Role = "operator"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleOperator:
		return true
	}
	return false
}

// User is the domain model for managed accounts.
type User struct {
	ID           string
	Name         string
	Email        string
	CPF          string
	Phone        *string
	PasswordHash string
	Role         Role
	Observations *string
	Active       bool
	Deleted      bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
