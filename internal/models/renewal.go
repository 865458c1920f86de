package models

// AI providers for renewal comparisons.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// RenewalComparison is the AI generated comparison of a policy renewal.
// Email and Attachment hold markdown.
type RenewalComparison struct {
	AIProvider string `json:"ai_provider,omitempty" validate:"omitempty,oneof=openai anthropic"`
	Email      string `json:"email,omitempty"`
	Attachment string `json:"attachment,omitempty"`
}

// ValidProvider reports whether p names a supported provider.
func ValidProvider(p string) bool {
	return p == ProviderOpenAI || p == ProviderAnthropic
}
