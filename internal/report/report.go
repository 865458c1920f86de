// Package report renders AI renewal comparisons for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/wolfeidau/agencyctl/internal/models"
)

// DefaultWidth is the word wrap used when the terminal width is unknown.
const DefaultWidth = 80

// Options controls rendering.
type Options struct {
	Width int
	// Style is a glamour style name; empty picks one from the terminal.
	Style string
}

// Renderer turns comparison markdown into styled terminal text.
type Renderer struct {
	md     *glamour.TermRenderer
	policy *bluemonday.Policy
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStylePath(opts.Style)
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Renderer{md: md, policy: bluemonday.StrictPolicy()}, nil
}

// markdownText restores the escapes bluemonday applies to plain text that
// markdown gives meaning to. &lt; stays escaped so no tag can reappear.
var markdownText = strings.NewReplacer(
	"&gt;", ">",
	"&amp;", "&",
	"&#34;", `"`,
	"&#39;", "'",
)

// Sanitize strips any HTML from model output so only markdown reaches the
// terminal.
func (r *Renderer) Sanitize(s string) string {
	return strings.TrimSpace(markdownText.Replace(r.policy.Sanitize(s)))
}

// Markdown sanitizes and renders md.
func (r *Renderer) Markdown(md string) (string, error) {
	return r.render(r.Sanitize(md))
}

func (r *Renderer) render(md string) (string, error) {
	out, err := r.md.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Comparison renders the email and attachment of rc under headings.
func (r *Renderer) Comparison(rc *models.RenewalComparison) (string, error) {
	if rc == nil {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Renewal comparison (%s)\n\n", r.Sanitize(rc.AIProvider))

	if email := r.Sanitize(rc.Email); email != "" {
		b.WriteString("## Email\n\n")
		b.WriteString(email)
		b.WriteString("\n\n")
	}
	if attachment := r.Sanitize(rc.Attachment); attachment != "" {
		b.WriteString("## Attachment\n\n")
		b.WriteString(attachment)
		b.WriteString("\n")
	}

	return r.render(b.String())
}
