// Package agencyapi implements the agency scoped data operations. Every
// operation requires a selected agency and fails before any request is sent
// when there is none.
package agencyapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/session"
	"github.com/wolfeidau/agencyctl/internal/telemetry"
)

// Sentinel errors
var (
	// ErrNoAgency is wrapped when an operation runs without a selected agency.
	ErrNoAgency = session.ErrNoAgency

	// ErrStaleAgency is returned when the selected agency changed while a
	// request was in flight. The result must be discarded.
	ErrStaleAgency = errors.New("selected agency changed during the request")

	// ErrUnauthenticated is wrapped by 401 failures.
	ErrUnauthenticated = client.ErrUnauthenticated
)

// API sends requests to the backend.
type API interface {
	Do(ctx context.Context, method, path string, opts ...client.RequestOption) (*client.Response, error)
}

// Tenant reports the selected agency.
type Tenant interface {
	SelectedAgency() *models.Agency
}

// Service groups the scoped operations of every entity.
type Service struct {
	api    API
	tenant Tenant

	Customers  *Resource[models.Customer, models.CustomerInput]
	Businesses *Resource[models.Business, models.BusinessInput]
	Policies   *Resource[models.Policy, models.PolicyInput]
}

// New creates a Service.
func New(api API, tenant Tenant) (*Service, error) {
	if api == nil || tenant == nil {
		return nil, errors.New("agencyapi: api and tenant are required")
	}

	s := &Service{api: api, tenant: tenant}
	s.Customers = newResource[models.Customer, models.CustomerInput](s, "/api/customers/", "customer", "customers")
	s.Businesses = newResource[models.Business, models.BusinessInput](s, "/api/businesses/", "business", "businesses")
	s.Policies = newResource[models.Policy, models.PolicyInput](s, "/api/policies/", "policy", "policies")

	return s, nil
}

// Guard captures the selected agency at the start of a request so a late
// response can be checked against the current selection.
type Guard struct {
	tenant   Tenant
	agencyID int64
}

// Guard captures the selected agency, or fails with ErrNoAgency.
func (s *Service) Guard() (Guard, error) {
	a := s.tenant.SelectedAgency()
	if a == nil {
		return Guard{}, ErrNoAgency
	}
	return Guard{tenant: s.tenant, agencyID: a.ID}, nil
}

// AgencyID returns the captured agency id.
func (g Guard) AgencyID() int64 {
	return g.agencyID
}

// Current reports whether the captured agency is still selected.
func (g Guard) Current() bool {
	a := g.tenant.SelectedAgency()
	return a != nil && a.ID == g.agencyID
}

// Commit returns ErrStaleAgency when the selection moved on.
func (g Guard) Commit(ctx context.Context) error {
	if g.Current() {
		return nil
	}
	telemetry.GetMetrics().StaleResponsesDiscards.Add(ctx, 1)
	return ErrStaleAgency
}

func (g Guard) query(extra ...string) url.Values {
	q := url.Values{"agency_id": {strconv.FormatInt(g.agencyID, 10)}}
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return q
}

// op holds the user facing messages of one operation.
type op struct {
	action string // e.g. "view customers"
	failed string // e.g. "Failed to fetch customers"
}

func (o op) noAgency() error {
	return &client.Error{
		Kind:    client.KindValidation,
		Message: "Please select an agency to " + o.action,
		Err:     ErrNoAgency,
	}
}

// wrap converts a transport level failure into the operation's message.
func (o op) wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleAgency), errors.Is(err, context.Canceled):
		return err
	case client.IsUnauthenticated(err):
		return client.Reword(err, "Please login to "+o.action)
	case client.IsConnectivity(err):
		return client.Reword(err, fmt.Sprintf("%s. %s", o.failed, err.Error()))
	}
	return err
}

// status converts a non-2xx response.
func (o op) status(resp *client.Response) error {
	return o.wrap(resp.Err(o.failed))
}

func (o op) shape(resp *client.Response, err error) error {
	return &client.Error{Kind: client.KindShape, Status: resp.Status, Message: o.failed, Err: err}
}

func (s *Service) guard(o op) (Guard, error) {
	g, err := s.Guard()
	if err != nil {
		return Guard{}, o.noAgency()
	}
	return g, nil
}
