// Package console is the interactive terminal console. It shows one list
// per entity for the selected agency and switches agencies in place.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/session"
	"github.com/wolfeidau/agencyctl/internal/table"
)

// mode is the screen the console is on.
type mode int

const (
	modeList     mode = iota // entity list
	modeFilter               // typing a filter
	modeConfirm              // confirming a delete
	modeDetail               // record detail
	modeAgencies             // agency switcher
	modeSignIn               // username and password form
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Reverse(true)
	agencyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7e57c2"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb8c00"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#43a047"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type readyMsg struct{ err error }

type loadedMsg struct {
	tab   int
	gen   uint64
	apply func()
	err   error
}

type deletedMsg struct {
	tab   int
	label string
	err   error
}

type detailMsg struct {
	text string
	err  error
}

type loginMsg struct{ err error }

type logoutMsg struct{ err error }

type agenciesMsg struct{ err error }

// Model is the console's bubbletea model.
type Model struct {
	ctx  context.Context
	sess *session.Context
	svc  *agencyapi.Service
	hub  *Hub

	tabs   []tab
	active int
	mode   mode

	filter   textinput.Model
	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	confirm      pinned
	agencyCursor int
	detail       string
	busy         bool

	width  int
	height int
}

// New creates the console model. hub must be the Navigator and Notifier the
// session was created with.
func New(ctx context.Context, sess *session.Context, svc *agencyapi.Service, hub *Hub) *Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "Filter..."

	username := textinput.New()
	username.Prompt = "Username: "

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:      ctx,
		sess:     sess,
		svc:      svc,
		hub:      hub,
		tabs:     newTabs(svc),
		filter:   filter,
		username: username,
		password: password,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		busy:     true,
	}
}

// Run starts the console on the terminal.
func Run(ctx context.Context, m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run console: %w", err)
	}
	return nil
}

// Init starts the session and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m *Model) start() tea.Msg {
	if err := m.sess.Initialize(m.ctx); err != nil {
		return readyMsg{err: err}
	}
	if !m.sess.Authenticated() {
		return readyMsg{}
	}
	_, err := m.sess.FetchAgencies(m.ctx)
	return readyMsg{err: err}
}

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case readyMsg:
		m.busy = false
		if msg.err != nil || !m.sess.Authenticated() {
			return nil
		}
		return m.load()

	case loadedMsg:
		return m.handleLoaded(msg)

	case deletedMsg:
		m.handleDeleted(msg)
		return nil

	case detailMsg:
		m.busy = false
		if msg.err != nil {
			m.hub.Notify(session.LevelError, msg.err.Error())
		}
		m.detail = msg.text
		return nil

	case loginMsg:
		m.busy = false
		m.password.SetValue("")
		if msg.err != nil {
			return nil
		}
		m.username.SetValue("")
		m.resetTabs()
		return m.fetchAgencies()

	case logoutMsg:
		m.busy = false
		m.resetTabs()
		return nil

	case agenciesMsg:
		m.busy = false
		if msg.err != nil {
			return nil
		}
		return m.load()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			return tea.Quit
		}
		return m.handleKey(msg)
	}

	return nil
}

// sync follows navigation done by the session, such as a 401 ending it.
func (m *Model) sync() tea.Cmd {
	signIn := m.hub.Current() == session.PathSignIn
	switch {
	case signIn && m.mode != modeSignIn:
		m.mode = modeSignIn
		m.password.SetValue("")
		m.password.Blur()
		return m.username.Focus()
	case !signIn && m.mode == modeSignIn:
		m.mode = modeList
		m.username.Blur()
		m.password.Blur()
	}
	return nil
}

func (m *Model) current() tab {
	return m.tabs[m.active]
}

// load fetches the active list for the selected agency.
func (m *Model) load() tea.Cmd {
	t := m.current()
	t.setLoading()
	idx, gen := m.active, m.sess.Generation()

	return func() tea.Msg {
		apply, err := t.fetch(m.ctx)
		return loadedMsg{tab: idx, gen: gen, apply: apply, err: err}
	}
}

func (m *Model) handleLoaded(msg loadedMsg) tea.Cmd {
	if errors.Is(msg.err, agencyapi.ErrStaleAgency) || msg.gen != m.sess.Generation() {
		log.Debug().Int("tab", msg.tab).Msg("discarding response for previous agency")
		return nil
	}

	t := m.tabs[msg.tab]
	if msg.err != nil {
		t.setError(msg.err)
		if !client.IsUnauthenticated(msg.err) {
			m.hub.Notify(session.LevelError, msg.err.Error())
		}
		return nil
	}

	msg.apply()
	return nil
}

func (m *Model) handleDeleted(msg deletedMsg) {
	t := m.tabs[msg.tab]
	switch {
	case errors.Is(msg.err, table.ErrActionInFlight):
		m.hub.Notify(session.LevelInfo, fmt.Sprintf("Already deleting %s.", msg.label))
	case msg.err != nil:
		m.hub.Notify(session.LevelError, msg.err.Error())
	default:
		one := t.singular()
		m.hub.Notify(session.LevelSuccess, strings.ToUpper(one[:1])+one[1:]+" deleted successfully.")
		if msg.tab == m.active {
			t.move(0)
		}
	}
}

func (m *Model) resetTabs() {
	for _, t := range m.tabs {
		t.reset()
	}
	m.detail = ""
}

func (m *Model) fetchAgencies() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		_, err := m.sess.FetchAgencies(m.ctx)
		return agenciesMsg{err: err}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case modeSignIn:
		return m.signInKey(msg)
	case modeFilter:
		return m.filterKey(msg)
	case modeConfirm:
		return m.confirmKey(msg)
	case modeDetail:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Quit) {
			m.mode = modeList
			m.detail = ""
		}
		return nil
	case modeAgencies:
		return m.agencyKey(msg)
	}

	t := m.current()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		t.move(-1)
	case key.Matches(msg, m.keys.Down):
		t.move(1)
	case key.Matches(msg, m.keys.PrevPage):
		t.prevPage()
	case key.Matches(msg, m.keys.NextPage):
		t.nextPage()
	case key.Matches(msg, m.keys.NextTab):
		m.active = (m.active + 1) % len(m.tabs)
		return m.load()
	case key.Matches(msg, m.keys.PrevTab):
		m.active = (m.active + len(m.tabs) - 1) % len(m.tabs)
		return m.load()
	case key.Matches(msg, m.keys.Sort), key.Matches(msg, m.keys.SortAdd):
		n, multi := sortColumn(msg.String())
		if err := t.sortBy(n, multi); err != nil {
			m.hub.Notify(session.LevelWarning, err.Error())
		}
	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.filter.SetValue(t.filter())
		return m.filter.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m.load()
	case key.Matches(msg, m.keys.Open):
		if t.open(t.cursor()) != nil {
			return nil
		}
		m.mode = modeDetail
		m.busy = true
		m.detail = ""
		width := m.width
		return func() tea.Msg {
			text, err := t.detail(m.ctx, width)
			return detailMsg{text: text, err: err}
		}
	case key.Matches(msg, m.keys.Delete):
		row := t.cursor()
		if t.busy(row) {
			return nil
		}
		p, ok := t.pin(row)
		if !ok {
			return nil
		}
		m.confirm = p
		m.mode = modeConfirm
	case key.Matches(msg, m.keys.Agencies):
		m.mode = modeAgencies
		m.agencyCursor = 0
		if sel := m.sess.SelectedAgency(); sel != nil {
			for i, a := range m.sess.Agencies() {
				if a.ID == sel.ID {
					m.agencyCursor = i
				}
			}
		}
	case key.Matches(msg, m.keys.Logout):
		m.busy = true
		return func() tea.Msg {
			return logoutMsg{err: m.sess.Logout(m.ctx)}
		}
	case key.Matches(msg, m.keys.Back):
		m.hub.Dismiss()
	}
	return nil
}

func (m *Model) filterKey(msg tea.KeyMsg) tea.Cmd {
	t := m.current()
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.filter.Blur()
		return nil
	case tea.KeyEsc:
		m.mode = modeList
		m.filter.Blur()
		m.filter.SetValue("")
		t.setFilter("")
		return nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	t.setFilter(m.filter.Value())
	return cmd
}

func (m *Model) confirmKey(msg tea.KeyMsg) tea.Cmd {
	m.mode = modeList
	if msg.String() != "y" && msg.String() != "Y" {
		return nil
	}

	idx, p := m.active, m.confirm
	return func() tea.Msg {
		return deletedMsg{tab: idx, label: p.label, err: p.remove(m.ctx)}
	}
}

func (m *Model) agencyKey(msg tea.KeyMsg) tea.Cmd {
	agencies := m.sess.Agencies()
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.mode = modeList
	case key.Matches(msg, m.keys.Up):
		m.agencyCursor = max(0, m.agencyCursor-1)
	case key.Matches(msg, m.keys.Down):
		m.agencyCursor = max(0, min(m.agencyCursor+1, len(agencies)-1))
	case key.Matches(msg, m.keys.Refresh):
		return m.fetchAgencies()
	case key.Matches(msg, m.keys.Open):
		m.mode = modeList
		if m.agencyCursor >= len(agencies) {
			return nil
		}
		return m.selectAgency(agencies[m.agencyCursor])
	}
	return nil
}

func (m *Model) selectAgency(a models.Agency) tea.Cmd {
	before := m.sess.Generation()
	if err := m.sess.SelectAgency(a); err != nil {
		m.hub.Notify(session.LevelError, err.Error())
		return nil
	}
	if m.sess.Generation() == before {
		return nil
	}

	m.hub.Notify(session.LevelInfo, fmt.Sprintf("Switched to %s.", a.Name))
	m.resetTabs()
	return m.load()
}

func (m *Model) signInKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		if m.username.Focused() {
			m.username.Blur()
			return m.password.Focus()
		}
		m.password.Blur()
		return m.username.Focus()
	case tea.KeyEnter:
		if m.username.Focused() {
			m.username.Blur()
			return m.password.Focus()
		}
		if m.busy {
			return nil
		}
		m.busy = true
		user, pass := strings.TrimSpace(m.username.Value()), m.password.Value()
		return func() tea.Msg {
			return loginMsg{err: m.sess.Login(m.ctx, user, pass)}
		}
	}

	var cmd tea.Cmd
	if m.username.Focused() {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}
