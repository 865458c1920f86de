package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// shiftedDigits are the keys above 1-9 on a US layout.
const shiftedDigits = "!@#$%^&*("

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Sort     key.Binding
	SortAdd  key.Binding
	Filter   key.Binding
	Open     key.Binding
	Delete   key.Binding
	Agencies key.Binding
	Refresh  key.Binding
	Logout   key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next list")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev list")),
		Sort:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "sort column")),
		SortAdd:  key.NewBinding(key.WithKeys(strings.Split(shiftedDigits, "")...), key.WithHelp("shift+1-9", "add sort column")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Agencies: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "switch agency")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Open, k.Filter, k.Delete, k.Agencies, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.NextTab, k.PrevTab, k.Sort, k.SortAdd, k.Filter},
		{k.Open, k.Delete, k.Refresh, k.Back},
		{k.Agencies, k.Logout, k.Help, k.Quit},
	}
}

// sortColumn maps a sort key to the 1 based sortable column it selects and
// whether it adds to the current sort order.
func sortColumn(s string) (n int, multi bool) {
	if i := strings.Index(shiftedDigits, s); i >= 0 && len(s) == 1 {
		return i + 1, true
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '0'), false
	}
	return 0, false
}
