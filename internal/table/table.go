// Package table is a generic tabular view engine: sorting, per-column and
// global filtering, pagination, row actions and view states for any record
// type.
package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultPageSize is the page size used when WithPageSize is not given.
const DefaultPageSize = 10

// Sentinel errors
var (
	// ErrUnknownColumn is returned for a column key the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotSortable is returned when toggling sort on a column without the capability.
	ErrNotSortable = errors.New("column is not sortable")

	// ErrNotFilterable is returned when filtering a column without the capability.
	ErrNotFilterable = errors.New("column is not filterable")

	// ErrNoRow is returned for a row index outside the current page.
	ErrNoRow = errors.New("no such row")

	// ErrNoAction is returned when the row has no action with the given label.
	ErrNoAction = errors.New("no such action")

	// ErrActionInFlight is returned while another action runs for the same row.
	ErrActionInFlight = errors.New("an action is already running for this row")
)

// Column describes one column and its capabilities.
type Column[T any] struct {
	Key    string
	Header string

	// Cell renders the cell text. Defaults to Text(Value(row)).
	Cell func(T) string

	// Value is the raw value used for sorting and the default column filter.
	// nil or a typed nil pointer means absent.
	Value func(T) any

	// Compare overrides Value based ordering for rows whose Value is
	// present; absent values still sort last and Compare is never called
	// for them. Compare sorts ascending, the table reverses it.
	Compare func(a, b T) int

	Sortable   bool
	Filterable bool

	// Filter overrides the default column filter, which matches when the
	// cell text equals one of the values ignoring case.
	Filter func(row T, values []string) bool
}

// Action is a row level action rendered in the trailing actions column.
type Action[T any] struct {
	Label       string
	Icon        string
	Destructive bool
	Separator   bool
	Handler     func(ctx context.Context, row T) error
}

// SortKey is one entry of the sort order.
type SortKey struct {
	Column string
	Desc   bool
}

// Option configures a Table.
type Option[T any] func(*Table[T])

// WithGlobalFilter sets the predicate the free-text filter is matched
// against. Without it every row matches.
func WithGlobalFilter[T any](pred func(row T, query string) bool) Option[T] {
	return func(t *Table[T]) {
		t.globalFilter = pred
	}
}

// WithActions sets the per-row action set.
func WithActions[T any](fn func(T) []Action[T]) Option[T] {
	return func(t *Table[T]) {
		t.actions = fn
	}
}

// WithRowClick sets the handler run when a row is clicked.
func WithRowClick[T any](fn func(T)) Option[T] {
	return func(t *Table[T]) {
		t.rowClick = fn
	}
}

// WithEmptyMessage sets the message shown when no rows are visible.
func WithEmptyMessage[T any](msg string) Option[T] {
	return func(t *Table[T]) {
		t.emptyMessage = msg
	}
}

// WithPageSize sets the number of rows per page.
func WithPageSize[T any](n int) Option[T] {
	return func(t *Table[T]) {
		if n > 0 {
			t.pageSize = n
		}
	}
}

// WithRowKey sets the identity used to track in-flight actions per row.
func WithRowKey[T any](fn func(T) string) Option[T] {
	return func(t *Table[T]) {
		t.rowKey = fn
	}
}

// Table holds the data and the ephemeral view state of one table. It is safe
// for concurrent use.
type Table[T any] struct {
	mu sync.Mutex

	cols  []Column[T]
	index map[string]int

	data    []T
	loading bool
	err     error

	sort     []SortKey
	filters  map[string][]string
	query    string
	hidden   map[string]bool
	page     int
	pageSize int
	selected int

	globalFilter func(T, string) bool
	actions      func(T) []Action[T]
	rowClick     func(T)
	emptyMessage string
	rowKey       func(T) string
	inFlight     map[string]bool
}

// New creates a table for cols.
func New[T any](cols []Column[T], opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		cols:         cols,
		index:        make(map[string]int, len(cols)),
		filters:      make(map[string][]string),
		hidden:       make(map[string]bool),
		pageSize:     DefaultPageSize,
		selected:     -1,
		emptyMessage: "No results.",
		inFlight:     make(map[string]bool),
	}
	for i, c := range cols {
		t.index[c.Key] = i
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.globalFilter == nil {
		t.globalFilter = func(T, string) bool { return true }
	}
	if t.rowKey == nil {
		t.rowKey = func(row T) string { return fmt.Sprintf("%v", row) }
	}
	return t
}

// SetData replaces the rows and clears the loading and error states.
func (t *Table[T]) SetData(rows []T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = slices.Clone(rows)
	t.loading = false
	t.err = nil
	t.clampPage()
}

// Data returns a copy of all rows, including filtered ones.
func (t *Table[T]) Data() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.data)
}

// Remove drops the rows matching pred from the data.
func (t *Table[T]) Remove(pred func(T) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = slices.DeleteFunc(t.data, pred)
	t.clampPage()
}

// SetLoading sets the loading flag.
func (t *Table[T]) SetLoading(loading bool) {
	t.mu.Lock()
	t.loading = loading
	t.mu.Unlock()
}

// SetError sets the error shown in place of the body; nil clears it.
func (t *Table[T]) SetError(err error) {
	t.mu.Lock()
	t.err = err
	if err != nil {
		t.loading = false
	}
	t.mu.Unlock()
}

// Columns returns the column definitions.
func (t *Table[T]) Columns() []Column[T] {
	return slices.Clone(t.cols)
}

// Sort returns the current sort order.
func (t *Table[T]) Sort() []SortKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.sort)
}

// ToggleSort cycles key through ascending, descending and unsorted. With
// multi the key is appended to the sort order instead of replacing it.
func (t *Table[T]) ToggleSort(key string, multi bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	col, err := t.column(key)
	if err != nil {
		return err
	}
	if !col.Sortable {
		return fmt.Errorf("%w: %s", ErrNotSortable, key)
	}

	i := slices.IndexFunc(t.sort, func(s SortKey) bool { return s.Column == key })

	switch {
	case i < 0 && multi:
		t.sort = append(t.sort, SortKey{Column: key})
	case i < 0:
		t.sort = []SortKey{{Column: key}}
	case !t.sort[i].Desc && multi:
		t.sort[i].Desc = true
	case !t.sort[i].Desc:
		t.sort = []SortKey{{Column: key, Desc: true}}
	case multi:
		t.sort = slices.Delete(t.sort, i, i+1)
	default:
		t.sort = nil
	}

	t.page = 0
	return nil
}

// ClearSort removes every sort key.
func (t *Table[T]) ClearSort() {
	t.mu.Lock()
	t.sort = nil
	t.page = 0
	t.mu.Unlock()
}

// SetGlobalFilter sets the free-text filter.
func (t *Table[T]) SetGlobalFilter(query string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.query = query
	t.page = 0
}

// GlobalFilter returns the free-text filter.
func (t *Table[T]) GlobalFilter() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.query
}

// SetColumnFilter keeps only rows whose column matches one of values.
// No values clears the filter.
func (t *Table[T]) SetColumnFilter(key string, values ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	col, err := t.column(key)
	if err != nil {
		return err
	}
	if !col.Filterable {
		return fmt.Errorf("%w: %s", ErrNotFilterable, key)
	}

	if len(values) == 0 {
		delete(t.filters, key)
	} else {
		t.filters[key] = slices.Clone(values)
	}
	t.page = 0
	return nil
}

// ClearColumnFilter removes the filter on key.
func (t *Table[T]) ClearColumnFilter(key string) {
	t.mu.Lock()
	delete(t.filters, key)
	t.page = 0
	t.mu.Unlock()
}

// ResetFilters clears the global and every column filter.
func (t *Table[T]) ResetFilters() {
	t.mu.Lock()
	t.query = ""
	t.filters = make(map[string][]string)
	t.page = 0
	t.mu.Unlock()
}

// SetColumnVisible shows or hides a column.
func (t *Table[T]) SetColumnVisible(key string, visible bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.column(key); err != nil {
		return err
	}
	if visible {
		delete(t.hidden, key)
	} else {
		t.hidden[key] = true
	}
	return nil
}

// SetPage moves to page, clamped into range.
func (t *Table[T]) SetPage(page int) {
	t.mu.Lock()
	t.page = page
	t.clampPage()
	t.mu.Unlock()
}

// NextPage moves forward one page if possible.
func (t *Table[T]) NextPage() {
	t.SetPage(t.Page() + 1)
}

// PrevPage moves back one page if possible.
func (t *Table[T]) PrevPage() {
	t.SetPage(t.Page() - 1)
}

// Page returns the zero based page index.
func (t *Table[T]) Page() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clampPage()
	return t.page
}

// PageCount returns the number of pages of the filtered rows, at least one.
func (t *Table[T]) PageCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pageCount(len(t.visible()))
}

// Select marks a row on the current page as selected for display.
func (t *Table[T]) Select(row int) {
	t.mu.Lock()
	t.selected = row
	t.mu.Unlock()
}

// Click runs the row click handler for a row on the current page.
func (t *Table[T]) Click(row int) error {
	t.mu.Lock()
	item, err := t.rowAt(row)
	fn := t.rowClick
	if err == nil {
		t.selected = row
	}
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if fn != nil {
		fn(item)
	}
	return nil
}

// Invoke runs the named action for a row on the current page. The row click
// handler is not run. While the action runs, further actions for the same
// row fail with ErrActionInFlight.
func (t *Table[T]) Invoke(ctx context.Context, row int, label string) error {
	t.mu.Lock()
	item, err := t.rowAt(row)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	return t.invokeLocked(ctx, item, label)
}

// InvokeFor runs the named action for the row whose key matches item, wherever
// it now sits after sorting, filtering or paging. It fails with ErrNoRow once
// the row is no longer in the data.
func (t *Table[T]) InvokeFor(ctx context.Context, item T, label string) error {
	t.mu.Lock()
	key := t.rowKey(item)
	i := slices.IndexFunc(t.data, func(r T) bool { return t.rowKey(r) == key })
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoRow, key)
	}
	return t.invokeLocked(ctx, t.data[i], label)
}

// invokeLocked is called with mu held and releases it.
func (t *Table[T]) invokeLocked(ctx context.Context, item T, label string) error {
	var action *Action[T]
	if t.actions != nil {
		for _, a := range t.actions(item) {
			if a.Label == label {
				action = &a
				break
			}
		}
	}
	if action == nil || action.Handler == nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoAction, label)
	}

	key := t.rowKey(item)
	if t.inFlight[key] {
		t.mu.Unlock()
		return ErrActionInFlight
	}
	t.inFlight[key] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, key)
		t.mu.Unlock()
	}()

	return action.Handler(ctx, item)
}

// InFlight reports whether an action is running for the row.
func (t *Table[T]) InFlight(row T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight[t.rowKey(row)]
}

// Visible returns the filtered and sorted rows before pagination.
func (t *Table[T]) Visible() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible()
}

func (t *Table[T]) column(key string) (Column[T], error) {
	i, ok := t.index[key]
	if !ok {
		return Column[T]{}, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	return t.cols[i], nil
}

func (t *Table[T]) rowAt(row int) (T, error) {
	var zero T
	rows := t.pageRows(t.visible())
	if row < 0 || row >= len(rows) {
		return zero, fmt.Errorf("%w: %d", ErrNoRow, row)
	}
	return rows[row], nil
}

func (t *Table[T]) visible() []T {
	rows := make([]T, 0, len(t.data))
	for _, row := range t.data {
		if t.matches(row) {
			rows = append(rows, row)
		}
	}

	if len(t.sort) > 0 {
		slices.SortStableFunc(rows, t.compare)
	}
	return rows
}

func (t *Table[T]) matches(row T) bool {
	if strings.TrimSpace(t.query) != "" && !t.globalFilter(row, t.query) {
		return false
	}

	for key, values := range t.filters {
		col, err := t.column(key)
		if err != nil {
			continue
		}
		if col.Filter != nil {
			if !col.Filter(row, values) {
				return false
			}
			continue
		}
		text := cellText(col, row)
		if !slices.ContainsFunc(values, func(v string) bool { return strings.EqualFold(v, text) }) {
			return false
		}
	}
	return true
}

func (t *Table[T]) compare(a, b T) int {
	for _, s := range t.sort {
		col, err := t.column(s.Column)
		if err != nil {
			continue
		}

		if c := compareColumn(col, a, b, s.Desc); c != 0 {
			return c
		}
	}
	return 0
}

// compareColumn orders by Compare or Value with absent values last in either
// direction.
func compareColumn[T any](col Column[T], a, b T, desc bool) int {
	var va, vb any
	switch {
	case col.Value != nil:
		va, vb = col.Value(a), col.Value(b)
	case col.Cell != nil:
		va, vb = col.Cell(a), col.Cell(b)
	case col.Compare != nil:
		// no value to test for absence
		return directed(col.Compare(a, b), desc)
	default:
		return 0
	}

	absentA, absentB := IsAbsent(va), IsAbsent(vb)
	switch {
	case absentA && absentB:
		return 0
	case absentA:
		return 1
	case absentB:
		return -1
	}

	if col.Compare != nil {
		return directed(col.Compare(a, b), desc)
	}
	return directed(CompareValues(va, vb), desc)
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

func (t *Table[T]) pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + t.pageSize - 1) / t.pageSize
}

func (t *Table[T]) clampPage() {
	last := t.pageCount(len(t.visible())) - 1
	t.page = max(0, min(t.page, last))
}

func (t *Table[T]) pageRows(rows []T) []T {
	t.clampPage()
	start := t.page * t.pageSize
	end := min(start+t.pageSize, len(rows))
	if start >= end {
		return nil
	}
	return rows[start:end]
}

func cellText[T any](col Column[T], row T) string {
	if col.Cell != nil {
		return col.Cell(row)
	}
	if col.Value != nil {
		return Text(col.Value(row))
	}
	return ""
}
