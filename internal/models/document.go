package models

import (
	"encoding/json"
	"time"
)

// Document is a file uploaded against a business and optionally attached to
// policies.
type Document struct {
	ID          int64           `json:"id" validate:"required,gt=0"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	File        string          `json:"file"`
	FieldValues json.RawMessage `json:"field_values,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UploadedAt  *time.Time      `json:"uploaded_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// AddedAt returns the upload timestamp under either name the backend uses.
func (d Document) AddedAt() *time.Time {
	if d.UploadedAt != nil {
		return d.UploadedAt
	}
	return d.CreatedAt
}
