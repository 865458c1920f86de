package agencyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

// Input is a create or update payload.
type Input interface {
	ValidateCreate() error
	ValidateUpdate() error
}

// Resource is the CRUD surface of one entity collection.
type Resource[T any, I Input] struct {
	svc      *Service
	path     string
	singular string
	plural   string
}

func newResource[T any, I Input](svc *Service, path, singular, plural string) *Resource[T, I] {
	return &Resource[T, I]{svc: svc, path: path, singular: singular, plural: plural}
}

// List returns every record of the selected agency.
func (r *Resource[T, I]) List(ctx context.Context) ([]T, error) {
	return r.list(ctx, op{
		action: "view " + r.plural,
		failed: "Failed to fetch " + r.plural,
	})
}

func (r *Resource[T, I]) list(ctx context.Context, o op, params ...string) ([]T, error) {
	g, err := r.svc.guard(o)
	if err != nil {
		return nil, err
	}

	resp, err := r.svc.api.Do(ctx, http.MethodGet, r.path, client.WithQuery(g.query(params...)))
	if err != nil {
		return nil, o.wrap(err)
	}
	if !resp.OK() {
		return nil, o.status(resp)
	}

	items, err := models.DecodeList[T](resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("unexpected list payload")
		return nil, o.shape(resp, err)
	}

	if err := g.Commit(ctx); err != nil {
		return nil, err
	}

	return items, nil
}

// Get returns one record, or nil when the backend does not know it.
func (r *Resource[T, I]) Get(ctx context.Context, id int64) (*T, error) {
	o := op{
		action: fmt.Sprintf("view %s details", r.singular),
		failed: fmt.Sprintf("Failed to fetch %s details", r.singular),
	}

	g, err := r.svc.guard(o)
	if err != nil {
		return nil, err
	}

	resp, err := r.svc.api.Do(ctx, http.MethodGet, r.item(id), client.WithQuery(g.query()))
	if err != nil {
		return nil, o.wrap(err)
	}
	if resp.Status == http.StatusNotFound {
		return nil, nil
	}
	if !resp.OK() {
		return nil, o.status(resp)
	}

	rec, err := models.DecodeOne[T](resp.Body)
	if err != nil {
		return nil, o.shape(resp, err)
	}

	if err := g.Commit(ctx); err != nil {
		return nil, err
	}

	return rec, nil
}

// Create validates in and creates a record in the selected agency.
func (r *Resource[T, I]) Create(ctx context.Context, in I) (*T, error) {
	o := op{
		action: "create " + r.plural,
		failed: "Failed to create " + r.singular,
	}

	g, err := r.svc.guard(o)
	if err != nil {
		return nil, err
	}
	if err := in.ValidateCreate(); err != nil {
		return nil, invalid(err)
	}

	return r.write(ctx, o, g, http.MethodPost, r.path, in)
}

// Update validates in and patches the fields it sets.
func (r *Resource[T, I]) Update(ctx context.Context, id int64, in I) (*T, error) {
	o := op{
		action: "update " + r.plural,
		failed: "Failed to update " + r.singular,
	}

	g, err := r.svc.guard(o)
	if err != nil {
		return nil, err
	}
	if err := in.ValidateUpdate(); err != nil {
		return nil, invalid(err)
	}

	return r.write(ctx, o, g, http.MethodPatch, r.item(id), in)
}

func (r *Resource[T, I]) write(ctx context.Context, o op, g Guard, method, path string, in I) (*T, error) {
	body, err := withAgency(in, g.AgencyID())
	if err != nil {
		return nil, err
	}

	resp, err := r.svc.api.Do(ctx, method, path,
		client.WithQuery(g.query()),
		client.WithJSON(body),
	)
	if err != nil {
		return nil, o.wrap(err)
	}
	if !resp.OK() {
		return nil, o.status(resp)
	}

	rec, err := models.DecodeOne[T](resp.Body)
	if err != nil {
		return nil, o.shape(resp, err)
	}

	log.Info().Str("entity", r.singular).Str("method", method).Int64("agency_id", g.AgencyID()).Msg("record saved")

	return rec, nil
}

// Delete removes a record. Only a 2xx response counts as deleted.
func (r *Resource[T, I]) Delete(ctx context.Context, id int64) error {
	o := op{
		action: "delete " + r.plural,
		failed: "Failed to delete " + r.singular,
	}

	g, err := r.svc.guard(o)
	if err != nil {
		return err
	}

	resp, err := r.svc.api.Do(ctx, http.MethodDelete, r.item(id), client.WithQuery(g.query()))
	if err != nil {
		return o.wrap(err)
	}
	if !resp.OK() {
		return o.status(resp)
	}

	log.Info().Str("entity", r.singular).Int64("id", id).Int64("agency_id", g.AgencyID()).Msg("record deleted")

	return nil
}

func (r *Resource[T, I]) item(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}

// withAgency adds agency_id to the JSON form of in.
func withAgency(in any, agencyID int64) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	body := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	id, _ := json.Marshal(agencyID)
	body["agency_id"] = id

	return body, nil
}

func invalid(err error) error {
	return &client.Error{Kind: client.KindValidation, Message: err.Error(), Err: err}
}
