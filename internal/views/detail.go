package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/table"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
)

type field struct {
	label string
	value any
}

func fields(title string, ff ...field) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	for _, f := range ff {
		v := table.Text(f.value)
		if v == "" {
			v = "-"
		}
		sb.WriteString(labelStyle.Render(f.label))
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Customer renders a customer with its businesses.
func Customer(c models.Customer, width int) string {
	out := fields(c.FullName(),
		field{"ID", c.ID},
		field{"Email", c.Email},
		field{"Phone", c.PhoneNumber},
		field{"Agency", c.AgencyName},
		field{"Created by", c.CreatedByUsername},
		field{"Created", c.CreatedAt},
		field{"Updated", c.UpdatedAt},
	)

	t := Businesses()
	t.SetData(c.Businesses)
	return out + "\n" + titleStyle.Render("Businesses") + "\n" + table.Render(t.View(), width)
}

// Business renders a business with its policies and documents.
func Business(d agencyapi.BusinessDetail, width int) string {
	b := d.Business
	out := fields(b.Name,
		field{"ID", b.ID},
		field{"Customer", b.Customer},
		field{"Email", b.Email},
		field{"Phone", b.PhoneNumber},
		field{"Address", b.Address},
		field{"Description", b.Description},
		field{"Created", b.CreatedAt},
	)

	policies := Policies()
	policies.SetData(d.Policies)

	docs := Documents()
	docs.SetData(d.Documents)

	return out +
		"\n" + titleStyle.Render("Policies") + "\n" + table.Render(policies.View(), width) +
		"\n" + titleStyle.Render("Documents") + "\n" + table.Render(docs.View(), width)
}

// Policy renders a policy with its attached documents.
func Policy(p models.Policy, width int) string {
	title := p.BusinessName
	if p.PolicyNumber != nil {
		title = fmt.Sprintf("%s (%s)", *p.PolicyNumber, p.BusinessName)
	}

	out := fields(title,
		field{"ID", p.ID},
		field{"Business", p.Business},
		field{"Type", p.TypeDisplay()},
		field{"Carrier", p.Carrier},
		field{"Premium", p.AnnualPremium},
		field{"Effective", p.EffectiveDate},
		field{"Expires", p.ExpirationDate},
		field{"Active", yesNo(p.IsActive)},
	)

	docs := Documents()
	docs.SetData(p.Documents)
	return out + "\n" + titleStyle.Render("Documents") + "\n" + table.Render(docs.View(), width)
}

// Documents creates the document list table.
func Documents() *table.Table[models.Document] {
	cols := []table.Column[models.Document]{
		{Key: "id", Header: "ID", Value: func(d models.Document) any { return d.ID }},
		{Key: "name", Header: "Name", Value: func(d models.Document) any { return d.Name }, Sortable: true},
		{Key: "description", Header: "Description", Value: func(d models.Document) any { return d.Description }},
		{Key: "added", Header: "Added", Value: func(d models.Document) any { return d.AddedAt() }, Sortable: true},
	}
	return table.New(cols, table.WithEmptyMessage[models.Document]("No documents."))
}
