package models

import (
	"encoding/json"
	"time"
)

// Business belongs to a customer.
type Business struct {
	ID          int64     `json:"id" validate:"required,gt=0"`
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	Address     *string   `json:"address"`
	PhoneNumber *string   `json:"phone_number"`
	Email       *string   `json:"email"`
	Customer    int64     `json:"customer" validate:"required,gt=0"`
	CreatedAt   time.Time `json:"created_at" validate:"required"`
	UpdatedAt   time.Time `json:"updated_at" validate:"required"`

	// Documents is only present on the detail endpoint and holds the linked
	// document records as returned.
	Documents json.RawMessage `json:"documents,omitempty"`
}

// BusinessInput is the writable subset of a business.
type BusinessInput struct {
	Name        *string `json:"name,omitempty" yaml:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" yaml:"description"`
	Address     *string `json:"address,omitempty" yaml:"address"`
	PhoneNumber *string `json:"phone_number,omitempty" yaml:"phone_number" validate:"omitempty,max=20"`
	Email       *string `json:"email,omitempty" yaml:"email" validate:"omitempty,email"`
	Customer    *int64  `json:"customer,omitempty" yaml:"customer" validate:"omitempty,gt=0"`
}

// ValidateCreate checks the fields required to create a business.
func (in BusinessInput) ValidateCreate() error {
	if err := requireFields(map[string]*string{"name": in.Name}); err != nil {
		return err
	}
	if in.Customer == nil {
		return &InputError{Fields: []string{"customer"}}
	}
	return in.ValidateUpdate()
}

// ValidateUpdate checks the format of the fields that are set.
func (in BusinessInput) ValidateUpdate() error {
	return validateInput(in)
}
