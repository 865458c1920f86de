package models

// Principal is the authenticated user returned by the backend.
type Principal struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsStaff  bool   `json:"is_staff"`
}

// DisplayName returns the name shown in prompts and status bars.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	return p.Username
}
