package session

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/telemetry"
)

// FetchAgencies loads the agencies of the principal and settles the
// selection: the current one if still present, else the persisted one if
// present, else the first.
func (c *Context) FetchAgencies(ctx context.Context) ([]models.Agency, error) {
	agencies, err := c.fetchAgencies(ctx)
	if err != nil {
		c.setErr(err)
		c.notify.Notify(LevelError, err.Error())
		return nil, err
	}

	c.mu.Lock()
	c.agencies = agencies
	c.fetched = true
	c.err = nil

	prev := c.selected
	next := c.settle(agencies)
	changed := !sameAgency(prev, next)
	c.selected = next
	if changed {
		c.gen++
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	log.Debug().Int("count", len(agencies)).Msg("agencies fetched")

	if changed {
		for _, fn := range subs {
			fn(next)
		}
	}

	return slices.Clone(agencies), nil
}

// RefreshAgencies re-fetches the agency list.
func (c *Context) RefreshAgencies(ctx context.Context) error {
	_, err := c.FetchAgencies(ctx)
	return err
}

func (c *Context) fetchAgencies(ctx context.Context) ([]models.Agency, error) {
	resp, err := c.api.Do(ctx, http.MethodGet, "/api/agencies/")
	if err != nil {
		if client.IsConnectivity(err) {
			return nil, client.Reword(err, "Unable to load agencies. Please ensure the server is running.")
		}
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.Err("Failed to fetch agencies")
	}

	agencies, err := models.DecodeList[models.Agency](resp.Body)
	if err != nil {
		return nil, &client.Error{Kind: client.KindShape, Status: resp.Status, Message: "Failed to fetch agencies", Err: err}
	}
	return agencies, nil
}

// settle picks the selection for a freshly fetched list. Called with mu held.
func (c *Context) settle(agencies []models.Agency) *models.Agency {
	if len(agencies) == 0 {
		return nil
	}

	if c.selected != nil {
		if a := findAgency(agencies, c.selected.ID); a != nil {
			return a
		}
	}

	if id, err := c.store.SelectedAgency(); err == nil {
		if a := findAgency(agencies, id); a != nil {
			return a
		}
		log.Debug().Int64("agency_id", id).Msg("stored agency no longer available")
	}

	first := agencies[0]
	return &first
}

// SelectAgency makes agency the active tenant and persists it. Selecting
// the active agency again does nothing.
func (c *Context) SelectAgency(agency models.Agency) error {
	c.mu.Lock()
	if c.selected != nil && c.selected.ID == agency.ID {
		c.mu.Unlock()
		return nil
	}

	a := findAgency(c.agencies, agency.ID)
	if a == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownAgency, agency.ID)
	}

	id := a.ID
	if err := c.store.SetSelectedAgency(&id); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to save selected agency: %w", err)
	}

	c.selected = a
	c.gen++
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	telemetry.GetMetrics().AgencySwitchesTotal.Add(context.Background(), 1)
	log.Info().Int64("agency_id", a.ID).Str("agency", a.Name).Msg("agency selected")

	for _, fn := range subs {
		fn(a)
	}
	return nil
}

// SelectAgencyByID selects the fetched agency with id.
func (c *Context) SelectAgencyByID(id int64) error {
	c.mu.RLock()
	a := findAgency(c.agencies, id)
	c.mu.RUnlock()

	if a == nil {
		return fmt.Errorf("%w: %d", ErrUnknownAgency, id)
	}
	return c.SelectAgency(*a)
}

// SelectedAgency returns the active agency, nil when none.
func (c *Context) SelectedAgency() *models.Agency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return nil
	}
	a := *c.selected
	return &a
}

// RequireAgency returns the active agency or ErrNoAgency.
func (c *Context) RequireAgency() (models.Agency, error) {
	a := c.SelectedAgency()
	if a == nil {
		return models.Agency{}, ErrNoAgency
	}
	return *a, nil
}

// Agencies returns the fetched agencies.
func (c *Context) Agencies() []models.Agency {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.agencies)
}

// AgenciesFetched reports whether the agency list has been loaded since the
// last sign in.
func (c *Context) AgenciesFetched() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched
}

// Generation increments on every change of the selected agency.
func (c *Context) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// OnAgencyChange registers fn to run after the selected agency changes. The
// returned func unregisters it.
func (c *Context) OnAgencyChange(fn func(*models.Agency)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.subs) {
			c.subs[idx] = func(*models.Agency) {}
		}
	}
}

func findAgency(agencies []models.Agency, id int64) *models.Agency {
	for i := range agencies {
		if agencies[i].ID == id {
			a := agencies[i]
			return &a
		}
	}
	return nil
}

func sameAgency(a, b *models.Agency) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.ID == b.ID
	}
}
