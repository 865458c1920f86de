package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Policy types accepted by the backend.
const (
	PolicyGeneralLiability      = "general_liability"
	PolicyCommercialProperty    = "commercial_property"
	PolicyWorkersComp           = "workers_comp"
	PolicyCommercialAuto        = "commercial_auto"
	PolicyProfessionalLiability = "professional_liability"
	PolicyBusinessInterruption  = "business_interruption"
)

// DateLayout is the wire format of policy dates.
const DateLayout = "2006-01-02"

// PolicyTypes maps policy type codes to display names.
var PolicyTypes = map[string]string{
	PolicyGeneralLiability:      "General Liability",
	PolicyCommercialProperty:    "Commercial Property",
	PolicyWorkersComp:           "Workers Compensation",
	PolicyCommercialAuto:        "Commercial Auto",
	PolicyProfessionalLiability: "Professional Liability",
	PolicyBusinessInterruption:  "Business Interruption",
}

// ErrPolicyDates is returned when a policy becomes effective after it expires.
var ErrPolicyDates = errors.New("effective date must be before expiration date")

// Policy is an insurance policy held by a business.
type Policy struct {
	ID                int64               `json:"id" validate:"required,gt=0"`
	Business          int64               `json:"business" validate:"required,gt=0"`
	BusinessName      string              `json:"business_name"`
	PolicyNumber      *string             `json:"policy_number"`
	EffectiveDate     *string             `json:"effective_date" validate:"omitempty,datetime=2006-01-02"`
	ExpirationDate    *string             `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Carrier           *string             `json:"carrier"`
	AnnualPremium     decimal.NullDecimal `json:"annual_premium"`
	PolicyType        *string             `json:"policy_type" validate:"omitempty,policytype"`
	PolicyTypeDisplay string              `json:"policy_type_display"`
	IsActive          bool                `json:"is_active"`
	Documents         []Document          `json:"documents,omitempty" validate:"omitempty,dive"`
	CreatedAt         time.Time           `json:"created_at" validate:"required"`
	UpdatedAt         time.Time           `json:"updated_at" validate:"required"`
}

// Premium returns the annual premium, or nil when the policy has none.
func (p Policy) Premium() *decimal.Decimal {
	if !p.AnnualPremium.Valid {
		return nil
	}
	d := p.AnnualPremium.Decimal
	return &d
}

// TypeDisplay returns the display name of the policy type.
func (p Policy) TypeDisplay() string {
	if p.PolicyTypeDisplay != "" {
		return p.PolicyTypeDisplay
	}
	if p.PolicyType != nil {
		return PolicyTypes[*p.PolicyType]
	}
	return ""
}

// PolicyInput is the writable subset of a policy.
type PolicyInput struct {
	Business       *int64           `json:"business,omitempty" yaml:"business" validate:"omitempty,gt=0"`
	PolicyNumber   *string          `json:"policy_number,omitempty" yaml:"policy_number" validate:"omitempty,max=100"`
	EffectiveDate  *string          `json:"effective_date,omitempty" yaml:"effective_date" validate:"omitempty,datetime=2006-01-02"`
	ExpirationDate *string          `json:"expiration_date,omitempty" yaml:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Carrier        *string          `json:"carrier,omitempty" yaml:"carrier" validate:"omitempty,max=200"`
	AnnualPremium  *decimal.Decimal `json:"annual_premium,omitempty" yaml:"annual_premium"`
	PolicyType     *string          `json:"policy_type,omitempty" yaml:"policy_type" validate:"omitempty,policytype"`
}

// ValidateCreate checks the fields required to create a policy.
func (in PolicyInput) ValidateCreate() error {
	if in.Business == nil {
		return &InputError{Fields: []string{"business"}}
	}
	return in.ValidateUpdate()
}

// ValidateUpdate checks the format of the fields that are set and the date
// ordering when both dates are present.
func (in PolicyInput) ValidateUpdate() error {
	if err := validateInput(in); err != nil {
		return err
	}

	if in.AnnualPremium != nil && in.AnnualPremium.IsNegative() {
		return &InputError{Fields: []string{"annual_premium"}}
	}

	if in.EffectiveDate != nil && in.ExpirationDate != nil {
		eff, _ := time.Parse(DateLayout, *in.EffectiveDate)
		exp, _ := time.Parse(DateLayout, *in.ExpirationDate)
		if eff.After(exp) {
			return ErrPolicyDates
		}
	}

	return nil
}
