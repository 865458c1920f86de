package agencyapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

// GenerateRenewalComparison asks the backend for an AI comparison of a
// policy renewal. An empty provider uses OpenAI.
func (s *Service) GenerateRenewalComparison(ctx context.Context, policyID int64, provider string) (*models.RenewalComparison, error) {
	o := op{action: "generate renewal comparison", failed: "Failed to generate renewal comparison"}

	g, err := s.guard(o)
	if err != nil {
		return nil, err
	}

	if provider == "" {
		provider = models.ProviderOpenAI
	}
	if !models.ValidProvider(provider) {
		return nil, invalid(fmt.Errorf("unknown AI provider %q, use %s or %s", provider, models.ProviderOpenAI, models.ProviderAnthropic))
	}

	resp, err := s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/api/policies/%d/generate_renewal_comparison/", policyID),
		client.WithQuery(g.query("ai_provider", provider)),
	)
	if err != nil {
		return nil, o.wrap(err)
	}
	if !resp.OK() {
		return nil, o.status(resp)
	}

	rc, err := models.DecodeOne[models.RenewalComparison](resp.Body)
	if err != nil {
		return nil, o.shape(resp, err)
	}
	if rc.AIProvider == "" {
		rc.AIProvider = provider
	}

	return rc, nil
}
