package table

import "slices"

// Status is the state a table renders in.
type Status int

const (
	StatusRows Status = iota
	StatusLoading
	StatusError
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	default:
		return "rows"
	}
}

// HeaderCell is a visible column header with its sort state.
type HeaderCell struct {
	Key      string
	Header   string
	Sortable bool
	// SortOrder is the 1 based position in the sort order, 0 when unsorted.
	SortOrder int
	Desc      bool
	Filtered  bool
}

// Row is a rendered row of the current page.
type Row[T any] struct {
	Item     T
	Cells    []string
	Actions  []Action[T]
	Selected bool
	InFlight bool
}

// View is a snapshot of what the table should display.
type View[T any] struct {
	Status       Status
	Err          error
	EmptyMessage string

	// ShowToolbar is false in the error state.
	ShowToolbar  bool
	GlobalFilter string

	Headers    []HeaderCell
	HasActions bool
	Rows       []Row[T]

	Page      int
	PageCount int
	// Total is the number of rows passing the filters.
	Total int
}

// View returns the current display state. Loading takes precedence over
// error, error over empty, and empty over rows.
func (t *Table[T]) View() View[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	visible := t.visible()
	t.clampPage()

	v := View[T]{
		Err:          t.err,
		EmptyMessage: t.emptyMessage,
		ShowToolbar:  t.err == nil,
		GlobalFilter: t.query,
		HasActions:   t.actions != nil,
		Page:         t.page,
		PageCount:    t.pageCount(len(visible)),
		Total:        len(visible),
	}

	for _, col := range t.cols {
		if t.hidden[col.Key] {
			continue
		}
		h := HeaderCell{Key: col.Key, Header: col.Header, Sortable: col.Sortable}
		if i := slices.IndexFunc(t.sort, func(s SortKey) bool { return s.Column == col.Key }); i >= 0 {
			h.SortOrder = i + 1
			h.Desc = t.sort[i].Desc
		}
		_, h.Filtered = t.filters[col.Key]
		v.Headers = append(v.Headers, h)
	}

	switch {
	case t.loading:
		v.Status = StatusLoading
		return v
	case t.err != nil:
		v.Status = StatusError
		return v
	}

	rows := t.pageRows(visible)
	if len(rows) == 0 {
		v.Status = StatusEmpty
		return v
	}

	v.Status = StatusRows
	for i, item := range rows {
		r := Row[T]{
			Item:     item,
			Selected: i == t.selected,
			InFlight: t.inFlight[t.rowKey(item)],
		}
		for _, col := range t.cols {
			if t.hidden[col.Key] {
				continue
			}
			r.Cells = append(r.Cells, cellText(col, item))
		}
		if t.actions != nil {
			r.Actions = t.actions(item)
		}
		v.Rows = append(v.Rows, r)
	}

	return v
}
