package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/views"
)

// BusinessesCmd manages the businesses of the selected agency.
type BusinessesCmd struct {
	List   BusinessesListCmd   `cmd:"" default:"withargs" help:"List businesses"`
	Show   BusinessesShowCmd   `cmd:"" help:"Show a business with its policies and documents"`
	Create BusinessesCreateCmd `cmd:"" help:"Create a business"`
	Update BusinessesUpdateCmd `cmd:"" help:"Update a business"`
	Delete BusinessesDeleteCmd `cmd:"" help:"Delete a business"`
}

func businesses(a *app) *agencyapi.Resource[models.Business, models.BusinessInput] {
	return a.svc.Businesses
}

func showBusiness(b models.Business) string {
	return views.Business(agencyapi.BusinessDetail{Business: b}, 0)
}

type BusinessesListCmd struct {
	ListFlags
}

func (c *BusinessesListCmd) Run(ctx context.Context, globals *Globals) error {
	return runList(ctx, globals, func(a *app) ([]models.Business, error) {
		return a.svc.Businesses.List(ctx)
	}, views.Businesses, c.ListFlags)
}

type BusinessesShowCmd struct {
	ID int64 `arg:"" help:"Business ID"`
}

func (c *BusinessesShowCmd) Run(ctx context.Context, globals *Globals) error {
	return withApp(ctx, globals, func(a *app) error {
		detail, err := a.svc.GetBusinessDetail(ctx, c.ID)
		if err != nil {
			return err
		}
		if detail == nil {
			return fmt.Errorf("business %d not found", c.ID)
		}
		_, err = fmt.Fprint(globals.out(), views.Business(*detail, 0))
		return err
	})
}

type BusinessesCreateCmd struct {
	InputFlags
}

func (c *BusinessesCreateCmd) Run(ctx context.Context, globals *Globals) error {
	return runCreate(ctx, globals, businesses, c.InputFlags, showBusiness)
}

type BusinessesUpdateCmd struct {
	ID int64 `arg:"" help:"Business ID"`
	InputFlags
}

func (c *BusinessesUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	return runUpdate(ctx, globals, businesses, c.ID, c.InputFlags, showBusiness)
}

type BusinessesDeleteCmd struct {
	ID int64 `arg:"" help:"Business ID"`
	DeleteFlags
}

func (c *BusinessesDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	return runDelete(ctx, globals, businesses, "business", c.ID, c.DeleteFlags)
}
