package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfeidau/agencyctl/internal/agencyapi"
	"github.com/wolfeidau/agencyctl/internal/models"
	"github.com/wolfeidau/agencyctl/internal/table"
	"github.com/wolfeidau/agencyctl/internal/views"
)

const actionDelete = "Delete"

// tab is one entity list screen.
type tab interface {
	title() string
	singular() string
	fetch(ctx context.Context) (func(), error)
	setLoading()
	setError(err error)
	reset()
	render(width int) string

	rows() int
	cursor() int
	move(delta int)
	nextPage()
	prevPage()
	sortBy(n int, multi bool) error
	setFilter(q string)
	filter() string

	label(row int) string
	busy(row int) bool
	pin(row int) (pinned, bool)
	open(row int) error
	detail(ctx context.Context, width int) (string, error)
}

// entityTab adapts a table of T to the console.
type entityTab[T any] struct {
	name  string
	one   string
	tbl   *table.Table[T]
	cur   int
	click *T

	list    func(ctx context.Context) ([]T, error)
	del     func(ctx context.Context, id int64) error
	id      func(T) int64
	caption func(T) string
	show    func(ctx context.Context, row T, width int) (string, error)
}

func (e *entityTab[T]) init(build func(...table.Option[T]) *table.Table[T]) *entityTab[T] {
	e.tbl = build(
		table.WithActions(func(T) []table.Action[T] {
			return []table.Action[T]{{Label: actionDelete, Destructive: true, Handler: e.handleDelete}}
		}),
		table.WithRowClick(func(row T) { e.click = &row }),
	)
	return e
}

func (e *entityTab[T]) handleDelete(ctx context.Context, row T) error {
	id := e.id(row)
	if err := e.del(ctx, id); err != nil {
		return err
	}
	e.tbl.Remove(func(r T) bool { return e.id(r) == id })
	return nil
}

func (e *entityTab[T]) title() string    { return e.name }
func (e *entityTab[T]) singular() string { return e.one }

func (e *entityTab[T]) fetch(ctx context.Context) (func(), error) {
	rows, err := e.list(ctx)
	if err != nil {
		return nil, err
	}
	return func() {
		e.tbl.SetData(rows)
		e.move(0)
	}, nil
}

func (e *entityTab[T]) setLoading()        { e.tbl.SetLoading(true) }
func (e *entityTab[T]) setError(err error) { e.tbl.SetError(err) }

func (e *entityTab[T]) reset() {
	e.tbl.SetData(nil)
	e.tbl.ResetFilters()
	e.cur = 0
	e.tbl.Select(0)
}

func (e *entityTab[T]) render(width int) string {
	return table.Render(e.tbl.View(), width)
}

func (e *entityTab[T]) rows() int {
	return len(e.tbl.View().Rows)
}

func (e *entityTab[T]) cursor() int { return e.cur }

func (e *entityTab[T]) move(delta int) {
	e.cur = max(0, min(e.cur+delta, e.rows()-1))
	e.tbl.Select(e.cur)
}

func (e *entityTab[T]) nextPage() {
	e.tbl.NextPage()
	e.cur = 0
	e.move(0)
}

func (e *entityTab[T]) prevPage() {
	e.tbl.PrevPage()
	e.cur = 0
	e.move(0)
}

// sortBy toggles the sort of the n-th sortable column, counting from 1. With
// multi the column is added to the current sort order instead of replacing it.
func (e *entityTab[T]) sortBy(n int, multi bool) error {
	for _, col := range e.tbl.Columns() {
		if !col.Sortable {
			continue
		}
		if n--; n == 0 {
			err := e.tbl.ToggleSort(col.Key, multi)
			e.cur = 0
			e.move(0)
			return err
		}
	}
	return nil
}

func (e *entityTab[T]) setFilter(q string) {
	e.tbl.SetGlobalFilter(q)
	e.cur = 0
	e.move(0)
}

func (e *entityTab[T]) filter() string { return e.tbl.GlobalFilter() }

func (e *entityTab[T]) row(i int) (T, bool) {
	rows := e.tbl.View().Rows
	if i < 0 || i >= len(rows) {
		var zero T
		return zero, false
	}
	return rows[i].Item, true
}

func (e *entityTab[T]) label(i int) string {
	row, ok := e.row(i)
	if !ok {
		return ""
	}
	return e.caption(row)
}

func (e *entityTab[T]) busy(i int) bool {
	row, ok := e.row(i)
	return ok && e.tbl.InFlight(row)
}

// pinned is a delete bound to one record, independent of where the record
// is shown later.
type pinned struct {
	label  string
	remove func(ctx context.Context) error
}

func (e *entityTab[T]) pin(i int) (pinned, bool) {
	row, ok := e.row(i)
	if !ok {
		return pinned{}, false
	}
	return pinned{
		label:  e.caption(row),
		remove: func(ctx context.Context) error { return e.tbl.InvokeFor(ctx, row, actionDelete) },
	}, true
}

func (e *entityTab[T]) open(i int) error {
	e.click = nil
	return e.tbl.Click(i)
}

func (e *entityTab[T]) detail(ctx context.Context, width int) (string, error) {
	if e.click == nil {
		return "", table.ErrNoRow
	}
	return e.show(ctx, *e.click, width)
}

func notFound(what string) string {
	return fmt.Sprintf("%s not found.", strings.ToUpper(what[:1])+what[1:])
}

func newTabs(svc *agencyapi.Service) []tab {
	customers := (&entityTab[models.Customer]{
		name: "Customers", one: "customer",
		list: svc.Customers.List, del: svc.Customers.Delete,
		id:      func(c models.Customer) int64 { return c.ID },
		caption: func(c models.Customer) string { return c.FullName() },
		show: func(ctx context.Context, c models.Customer, width int) (string, error) {
			rec, err := svc.Customers.Get(ctx, c.ID)
			if err != nil || rec == nil {
				return notFound("customer"), err
			}
			return views.Customer(*rec, width), nil
		},
	}).init(views.Customers)

	businesses := (&entityTab[models.Business]{
		name: "Businesses", one: "business",
		list: svc.Businesses.List, del: svc.Businesses.Delete,
		id:      func(b models.Business) int64 { return b.ID },
		caption: func(b models.Business) string { return b.Name },
		show: func(ctx context.Context, b models.Business, width int) (string, error) {
			d, err := svc.GetBusinessDetail(ctx, b.ID)
			if err != nil || d == nil {
				return notFound("business"), err
			}
			return views.Business(*d, width), nil
		},
	}).init(views.Businesses)

	policies := (&entityTab[models.Policy]{
		name: "Policies", one: "policy",
		list: svc.Policies.List, del: svc.Policies.Delete,
		id: func(p models.Policy) int64 { return p.ID },
		caption: func(p models.Policy) string {
			if p.PolicyNumber != nil {
				return *p.PolicyNumber
			}
			return fmt.Sprintf("policy %d", p.ID)
		},
		show: func(ctx context.Context, p models.Policy, width int) (string, error) {
			rec, err := svc.Policies.Get(ctx, p.ID)
			if err != nil || rec == nil {
				return notFound("policy"), err
			}
			return views.Policy(*rec, width), nil
		},
	}).init(views.Policies)

	return []tab{customers, businesses, policies}
}
