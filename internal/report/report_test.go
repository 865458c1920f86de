package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/agencyctl/internal/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{Width: 60, Style: "notty"})
	require.NoError(t, err)
	return r
}

func TestSanitize(t *testing.T) {
	r := newTestRenderer(t)

	assert.Equal(t, "Hi there", r.Sanitize("Hi <b>there</b>"))
	assert.Equal(t, "", r.Sanitize(`<script>alert("x")</script>`))
	assert.Equal(t, "# Heading", r.Sanitize("  # Heading \n"))
}

func TestSanitize_keepsMarkdownPunctuation(t *testing.T) {
	r := newTestRenderer(t)

	assert.Equal(t, "> quoted carrier note", r.Sanitize("> quoted carrier note"))
	assert.Equal(t, "premium > 500 & rising", r.Sanitize("premium > 500 & rising"))
	assert.Equal(t, `the "gold" plan's excess`, r.Sanitize(`the "gold" plan's excess`))
	assert.Equal(t, "a &lt; b", r.Sanitize("a < b"))
	assert.Equal(t, "&lt;b>x&lt;/b>", r.Sanitize("&lt;b&gt;x&lt;/b&gt;"))
}

func TestComparison_rendersBlockquotes(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Comparison(&models.RenewalComparison{
		AIProvider: models.ProviderOpenAI,
		Email:      "> quoted carrier note\n\nCover is <i>unchanged</i> & premium > 500",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "quoted carrier note")
	assert.NotContains(t, out, "&gt;")
	assert.NotContains(t, out, "&amp;")
	assert.NotContains(t, out, "<i>")
	assert.Contains(t, out, "premium > 500")
}

func TestComparison(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Comparison(&models.RenewalComparison{
		AIProvider: models.ProviderAnthropic,
		Email:      "Hi <b>there</b>",
		Attachment: "Premium went **up**",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Renewal comparison (anthropic)")
	assert.Contains(t, out, "Email")
	assert.Contains(t, out, "Hi there")
	assert.Contains(t, out, "Attachment")
	assert.NotContains(t, out, "<b>")

	out, err = r.Comparison(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestComparison_skipsEmptySections(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Comparison(&models.RenewalComparison{AIProvider: models.ProviderOpenAI, Attachment: "table"})
	require.NoError(t, err)
	assert.NotContains(t, out, "Email")
	assert.Contains(t, out, "table")
}
