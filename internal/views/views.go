// Package views defines the tables and detail layouts shared by the CLI
// commands and the interactive console.
package views

import (
	"strconv"
	"strings"

	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/table"
)

// Customers creates the customer list table.
func Customers(opts ...table.Option[models.Customer]) *table.Table[models.Customer] {
	cols := []table.Column[models.Customer]{
		{Key: "name", Header: "Name", Value: func(c models.Customer) any { return c.FullName() }, Sortable: true},
		{Key: "email", Header: "Email", Value: func(c models.Customer) any { return c.Email }, Sortable: true},
		{Key: "phone", Header: "Phone", Value: func(c models.Customer) any { return c.PhoneNumber }},
		{Key: "businesses", Header: "Businesses", Value: func(c models.Customer) any { return len(c.Businesses) }, Sortable: true},
		{Key: "created", Header: "Created", Value: func(c models.Customer) any { return c.CreatedAt }, Sortable: true},
	}

	base := []table.Option[models.Customer]{
		table.WithGlobalFilter(func(c models.Customer, q string) bool {
			name := c.FullName()
			return table.ContainsFold(q, &name, &c.Email, &c.PhoneNumber)
		}),
		table.WithRowKey(func(c models.Customer) string { return strconv.FormatInt(c.ID, 10) }),
		table.WithEmptyMessage[models.Customer]("No customers found."),
	}

	return table.New(cols, append(base, opts...)...)
}

// Businesses creates the business list table.
func Businesses(opts ...table.Option[models.Business]) *table.Table[models.Business] {
	cols := []table.Column[models.Business]{
		{Key: "name", Header: "Name", Value: func(b models.Business) any { return b.Name }, Sortable: true},
		{Key: "email", Header: "Email", Value: func(b models.Business) any { return b.Email }, Sortable: true},
		{Key: "phone", Header: "Phone", Value: func(b models.Business) any { return b.PhoneNumber }},
		{Key: "address", Header: "Address", Value: func(b models.Business) any { return b.Address }},
		{Key: "customer", Header: "Customer", Value: func(b models.Business) any { return b.Customer }, Sortable: true, Filterable: true},
		{Key: "created", Header: "Created", Value: func(b models.Business) any { return b.CreatedAt }, Sortable: true},
	}

	base := []table.Option[models.Business]{
		table.WithGlobalFilter(func(b models.Business, q string) bool {
			return table.ContainsFold(q, &b.Name, b.Email, b.PhoneNumber, b.Address)
		}),
		table.WithRowKey(func(b models.Business) string { return strconv.FormatInt(b.ID, 10) }),
		table.WithEmptyMessage[models.Business]("No businesses found."),
	}

	return table.New(cols, append(base, opts...)...)
}

// Policies creates the policy list table.
func Policies(opts ...table.Option[models.Policy]) *table.Table[models.Policy] {
	cols := []table.Column[models.Policy]{
		{Key: "number", Header: "Policy #", Value: func(p models.Policy) any { return p.PolicyNumber }, Sortable: true},
		{Key: "business", Header: "Business", Value: func(p models.Policy) any { return p.BusinessName }, Sortable: true},
		{
			Key: "type", Header: "Type", Value: func(p models.Policy) any { return p.TypeDisplay() }, Sortable: true, Filterable: true,
			Filter: func(p models.Policy, values []string) bool {
				for _, v := range values {
					if (p.PolicyType != nil && strings.EqualFold(*p.PolicyType, v)) || strings.EqualFold(p.TypeDisplay(), v) {
						return true
					}
				}
				return false
			},
		},
		{Key: "carrier", Header: "Carrier", Value: func(p models.Policy) any { return p.Carrier }, Sortable: true},
		{Key: "premium", Header: "Premium", Value: func(p models.Policy) any { return p.AnnualPremium }, Sortable: true},
		{Key: "effective", Header: "Effective", Value: func(p models.Policy) any { return p.EffectiveDate }, Sortable: true},
		{Key: "expiration", Header: "Expires", Value: func(p models.Policy) any { return p.ExpirationDate }, Sortable: true},
		{
			Key: "active", Header: "Active", Value: func(p models.Policy) any { return p.IsActive }, Filterable: true,
			Cell: func(p models.Policy) string { return yesNo(p.IsActive) },
		},
	}

	base := []table.Option[models.Policy]{
		table.WithGlobalFilter(func(p models.Policy, q string) bool {
			typ := p.TypeDisplay()
			return table.ContainsFold(q, p.PolicyNumber, &p.BusinessName, p.Carrier, &typ)
		}),
		table.WithRowKey(func(p models.Policy) string { return strconv.FormatInt(p.ID, 10) }),
		table.WithEmptyMessage[models.Policy]("No policies found."),
	}

	return table.New(cols, append(base, opts...)...)
}

// Agencies creates the agency list table. The selected agency is marked.
func Agencies(selected *models.Agency) *table.Table[models.Agency] {
	cols := []table.Column[models.Agency]{
		{Key: "selected", Header: "", Cell: func(a models.Agency) string {
			if selected != nil && selected.ID == a.ID {
				return "*"
			}
			return ""
		}},
		{Key: "id", Header: "ID", Value: func(a models.Agency) any { return a.ID }},
		{Key: "name", Header: "Name", Value: func(a models.Agency) any { return a.Name }, Sortable: true},
		{Key: "role", Header: "Role", Value: func(a models.Agency) any { return a.Role }},
		{Key: "email", Header: "Email", Value: func(a models.Agency) any { return a.Email }},
	}

	return table.New(cols,
		table.WithRowKey(func(a models.Agency) string { return strconv.FormatInt(a.ID, 10) }),
		table.WithEmptyMessage[models.Agency]("No agencies available."),
		table.WithPageSize[models.Agency](100),
	)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
