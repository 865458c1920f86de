package commands

import (
	"context"

	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/views"
)

// CustomersCmd manages the customers of the selected agency.
type CustomersCmd struct {
	List   CustomersListCmd   `cmd:"" default:"withargs" help:"List customers"`
	Show   CustomersShowCmd   `cmd:"" help:"Show a customer and their businesses"`
	Create CustomersCreateCmd `cmd:"" help:"Create a customer"`
	Update CustomersUpdateCmd `cmd:"" help:"Update a customer"`
	Delete CustomersDeleteCmd `cmd:"" help:"Delete a customer"`
}

func customers(a *app) *agencyapi.Resource[models.Customer, models.CustomerInput] {
	return a.svc.Customers
}

func showCustomer(c models.Customer) string { return views.Customer(c, 0) }

type CustomersListCmd struct {
	ListFlags
}

func (c *CustomersListCmd) Run(ctx context.Context, globals *Globals) error {
	return runList(ctx, globals, func(a *app) ([]models.Customer, error) {
		return a.svc.Customers.List(ctx)
	}, views.Customers, c.ListFlags)
}

type CustomersShowCmd struct {
	ID int64 `arg:"" help:"Customer ID"`
}

func (c *CustomersShowCmd) Run(ctx context.Context, globals *Globals) error {
	return runShow(ctx, globals, "customer", c.ID, func(a *app) (*models.Customer, error) {
		return a.svc.Customers.Get(ctx, c.ID)
	}, showCustomer)
}

type CustomersCreateCmd struct {
	InputFlags
}

func (c *CustomersCreateCmd) Run(ctx context.Context, globals *Globals) error {
	return runCreate(ctx, globals, customers, c.InputFlags, showCustomer)
}

type CustomersUpdateCmd struct {
	ID int64 `arg:"" help:"Customer ID"`
	InputFlags
}

func (c *CustomersUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	return runUpdate(ctx, globals, customers, c.ID, c.InputFlags, showCustomer)
}

type CustomersDeleteCmd struct {
	ID int64 `arg:"" help:"Customer ID"`
	DeleteFlags
}

func (c *CustomersDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	return runDelete(ctx, globals, customers, "customer", c.ID, c.DeleteFlags)
}
