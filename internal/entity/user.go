package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Role enumerates the access levels known to the platform.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User represents a customer, staff member, or administrator.
// Customers carry a phone number; staff and admins carry email credentials.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:",pk"`
	Name         string    `bun:"name"`
	Email        *string   `bun:"email"`
	PhoneNumber  *string   `bun:"phone_number"`
	PasswordHash *string   `bun:"password_hash"`
	Role         Role      `bun:"role"`
	LocationID   *string   `bun:"location_id"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero"`
}
