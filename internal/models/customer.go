package models

import (
	"strings"
	"time"
)

// Customer is an agency customer. Businesses are nested read-only.
type Customer struct {
	ID                int64      `json:"id" validate:"required,gt=0"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email" validate:"required,email"`
	PhoneNumber       string     `json:"phone_number"`
	Businesses        []Business `json:"businesses,omitempty" validate:"omitempty,dive"`
	Agency            *int64     `json:"agency,omitempty"`
	AgencyName        *string    `json:"agency_name,omitempty"`
	CreatedBy         *int64     `json:"created_by,omitempty"`
	CreatedByUsername *string    `json:"created_by_username,omitempty"`
	CreatedAt         time.Time  `json:"created_at" validate:"required"`
	UpdatedAt         time.Time  `json:"updated_at" validate:"required"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CustomerInput is the writable subset of a customer. Nil fields are left
// out of the request, which makes the same type usable for PATCH.
type CustomerInput struct {
	FirstName   *string `json:"first_name,omitempty" yaml:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty" yaml:"last_name" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number,omitempty" yaml:"phone_number" validate:"omitempty,max=20"`
}

// ValidateCreate checks the fields required to create a customer.
func (in CustomerInput) ValidateCreate() error {
	if err := requireFields(map[string]*string{
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"email":        in.Email,
		"phone_number": in.PhoneNumber,
	}); err != nil {
		return err
	}
	return in.ValidateUpdate()
}

// ValidateUpdate checks the format of the fields that are set.
func (in CustomerInput) ValidateUpdate() error {
	return validateInput(in)
}
