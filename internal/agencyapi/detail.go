package agencyapi

import (
	"context"

	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
	"golang.org/x/sync/errgroup"
)

// BusinessDetail is a business with its policies and uploaded documents.
type BusinessDetail struct {
	Business  models.Business
	Policies  []models.Policy
	Documents []models.Document
}

// GetBusinessDetail fetches a business, its policies and its documents in
// parallel. It returns nil when the business does not exist.
func (s *Service) GetBusinessDetail(ctx context.Context, businessID int64) (*BusinessDetail, error) {
	var (
		business *models.Business
		detail   BusinessDetail
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		business, err = s.Businesses.Get(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Policies, err = s.BusinessPolicies(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Documents, err = s.BusinessDocuments(gctx, businessID)
		if client.KindOf(err) == client.KindNotFound {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if business == nil {
		return nil, nil
	}

	detail.Business = *business
	return &detail, nil
}
