package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wolfeidau/agencyctl/internal/session"
)

// View renders the current screen.
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	switch m.mode {
	case modeSignIn:
		sb.WriteString(m.signInView())
	case modeAgencies:
		sb.WriteString(m.agenciesView())
	case modeDetail:
		if m.busy {
			sb.WriteString(m.spinner.View() + " Loading...\n")
		} else {
			sb.WriteString(m.detail)
		}
		sb.WriteString("\n" + mutedStyle.Render("esc back") + "\n")
	default:
		sb.WriteString(m.listView())
	}

	if n := m.noticeView(); n != "" {
		sb.WriteString("\n" + n + "\n")
	}

	if m.mode == modeList {
		sb.WriteString("\n" + m.help.View(m.keys))
	}

	return sb.String()
}

func (m *Model) header() string {
	if m.mode == modeSignIn {
		return agencyStyle.Render("agencyctl") + " " + mutedStyle.Render("sign in")
	}

	agency := "no agency selected"
	if a := m.sess.SelectedAgency(); a != nil {
		agency = a.Name
	}
	user := ""
	if p := m.sess.Principal(); p != nil {
		user = mutedStyle.Render(" · " + p.DisplayName())
	}

	tabs := make([]string, 0, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(t.title()))
		} else {
			tabs = append(tabs, tabStyle.Render(t.title()))
		}
	}

	return agencyStyle.Render(agency) + user + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) listView() string {
	var sb strings.Builder
	t := m.current()

	if m.mode == modeFilter {
		sb.WriteString(m.filter.View() + "\n")
	}
	if m.busy {
		sb.WriteString(m.spinner.View() + " Loading...\n")
		return sb.String()
	}

	sb.WriteString(t.render(m.width))

	if m.mode == modeConfirm {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("Delete %s %q? This cannot be undone. (y/N)", t.singular(), m.confirm.label)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) agenciesView() string {
	agencies := m.sess.Agencies()
	if len(agencies) == 0 {
		return mutedStyle.Render("No agencies available.") + "\n"
	}

	sel := m.sess.SelectedAgency()
	var sb strings.Builder
	sb.WriteString("Switch agency\n\n")
	for i, a := range agencies {
		cursor := "  "
		if i == m.agencyCursor {
			cursor = "> "
		}
		mark := ""
		if sel != nil && sel.ID == a.ID {
			mark = okStyle.Render(" ✓")
		}
		role := ""
		if r := a.RoleName(); r != "" {
			role = mutedStyle.Render(" (" + r + ")")
		}
		sb.WriteString(cursor + a.Name + role + mark + "\n")
	}
	sb.WriteString("\n" + mutedStyle.Render("enter select · r refresh · esc back") + "\n")
	return sb.String()
}

func (m *Model) signInView() string {
	var sb strings.Builder
	sb.WriteString(m.username.View() + "\n")
	sb.WriteString(m.password.View() + "\n\n")
	if m.busy {
		sb.WriteString(m.spinner.View() + " Signing in...\n")
	} else {
		sb.WriteString(mutedStyle.Render("enter sign in · tab next field · esc quit") + "\n")
	}
	return sb.String()
}

func (m *Model) noticeView() string {
	n, ok := m.hub.Notice()
	if !ok {
		return ""
	}
	switch n.Level {
	case session.LevelSuccess:
		return okStyle.Render(n.Message)
	case session.LevelWarning:
		return warnStyle.Render(n.Message)
	case session.LevelError:
		return errStyle.Render(n.Message)
	default:
		return n.Message
	}
}
