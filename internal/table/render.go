package table

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle        = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle    = cellStyle.Reverse(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	destructiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	borderStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render draws v as text. Width limits the table width, 0 means unbounded.
func Render[T any](v View[T], width int) string {
	var sb strings.Builder

	switch v.Status {
	case StatusLoading:
		sb.WriteString(mutedStyle.Render("Loading..."))
		sb.WriteString("\n")
		return sb.String()
	case StatusError:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", v.Err)))
		sb.WriteString("\n")
		return sb.String()
	}

	if v.ShowToolbar && v.GlobalFilter != "" {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("Filter: %q", v.GlobalFilter)))
		sb.WriteString("\n")
	}

	headers := make([]string, 0, len(v.Headers)+1)
	for _, h := range v.Headers {
		headers = append(headers, headerLabel(h))
	}
	if v.HasActions {
		headers = append(headers, "Actions")
	}

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)

	if width > 0 {
		t = t.Width(width)
	}

	if v.Status == StatusEmpty {
		sb.WriteString(t.String())
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render(v.EmptyMessage))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, r := range v.Rows {
		cells := append([]string(nil), r.Cells...)
		if v.HasActions {
			cells = append(cells, actionsLabel(r))
		}
		t = t.Row(cells...)
	}

	rows := v.Rows
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == ltable.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(rows) && rows[row].Selected {
			return selectedStyle
		}
		return cellStyle
	})

	sb.WriteString(t.String())
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d rows)", v.Page+1, v.PageCount, v.Total)))
	sb.WriteString("\n")

	return sb.String()
}

func headerLabel(h HeaderCell) string {
	label := h.Header
	if h.SortOrder > 0 {
		arrow := "▲"
		if h.Desc {
			arrow = "▼"
		}
		label = fmt.Sprintf("%s %s%d", label, arrow, h.SortOrder)
	}
	if h.Filtered {
		label += " *"
	}
	return label
}

func actionsLabel[T any](r Row[T]) string {
	if r.InFlight {
		return mutedStyle.Render("working...")
	}

	parts := make([]string, 0, len(r.Actions))
	for _, a := range r.Actions {
		label := a.Label
		if a.Icon != "" {
			label = a.Icon + " " + label
		}
		if a.Destructive {
			label = destructiveStyle.Render(label)
		}
		if a.Separator && len(parts) > 0 {
			parts = append(parts, "·")
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}
