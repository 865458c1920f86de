package models

import "time"

// Agency roles as assigned to the caller.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleAgent = "agent"
	RoleStaff = "staff"
)

// Agency is a tenant. Every customer, business and policy request is scoped
// to exactly one agency.
type Agency struct {
	ID          int64     `json:"id" validate:"required,gt=0"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Website     string    `json:"website"`
	IsActive    bool      `json:"is_active"`
	Role        *string   `json:"role" validate:"omitempty,oneof=owner admin agent staff"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at" validate:"required"`
	UpdatedAt   time.Time `json:"updated_at" validate:"required"`
}

// RoleName returns the caller's role or an empty string.
func (a Agency) RoleName() string {
	if a.Role == nil {
		return ""
	}
	return *a.Role
}
