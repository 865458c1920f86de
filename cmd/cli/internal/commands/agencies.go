package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agencyctl/internal/table"
	"github.com/wolfeidau/agencyctl/internal/views"
)

// AgenciesCmd lists and selects agencies.
type AgenciesCmd struct {
	List   AgenciesListCmd   `cmd:"" default:"withargs" help:"List your agencies"`
	Select AgenciesSelectCmd `cmd:"" help:"Select the agency used by other commands"`
}

type AgenciesListCmd struct{}

func (c *AgenciesListCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.authenticate(ctx); err != nil {
		return err
	}
	agencies, err := a.sess.FetchAgencies(ctx)
	if err != nil {
		return err
	}

	tbl := views.Agencies(a.sess.SelectedAgency())
	tbl.SetData(agencies)
	_, err = fmt.Fprint(globals.out(), table.Render(tbl.View(), 0))
	return err
}

type AgenciesSelectCmd struct {
	ID int64 `arg:"" help:"Agency ID"`
}

func (c *AgenciesSelectCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := globals.open(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.authenticate(ctx); err != nil {
		return err
	}
	if _, err := a.sess.FetchAgencies(ctx); err != nil {
		return err
	}
	if err := a.sess.SelectAgencyByID(c.ID); err != nil {
		return err
	}

	// an automatic selection is not persisted, so store an explicit one
	if stored, err := a.state.SelectedAgency(); err != nil || stored != c.ID {
		id := c.ID
		if err := a.state.SetSelectedAgency(&id); err != nil {
			return fmt.Errorf("failed to save selected agency: %w", err)
		}
	}

	fmt.Fprintf(globals.out(), "Selected agency %s (%d).\n", a.sess.SelectedAgency().Name, c.ID)
	return nil
}
