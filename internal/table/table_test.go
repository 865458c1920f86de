package table

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID      int64
	Name    string
	Email   *string
	Premium *decimal.Decimal
	Count   int
}

func strp(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func columns() []Column[rec] {
	return []Column[rec]{
		{Key: "id", Header: "ID", Value: func(r rec) any { return r.ID }, Sortable: true},
		{Key: "name", Header: "Name", Value: func(r rec) any { return r.Name }, Sortable: true, Filterable: true},
		{Key: "email", Header: "Email", Value: func(r rec) any { return r.Email }, Sortable: true},
		{Key: "premium", Header: "Premium", Value: func(r rec) any { return r.Premium }, Sortable: true},
		{Key: "count", Header: "Count", Value: func(r rec) any { return r.Count }, Sortable: true},
	}
}

func searchable(r rec, q string) bool {
	id := strconv.FormatInt(r.ID, 10)
	return ContainsFold(q, &r.Name, r.Email, &id)
}

func fixtures() []rec {
	return []rec{
		{ID: 1, Name: "Acme", Email: strp("ops@acme.test"), Premium: dec("1500.00"), Count: 2},
		{ID: 2, Name: "bravo", Email: nil, Premium: nil, Count: 1},
		{ID: 3, Name: "Charlie", Email: strp("c@charlie.test"), Premium: dec("200.50"), Count: 2},
		{ID: 4, Name: "acme west", Email: strp("west@acme.test"), Premium: dec("75"), Count: 0},
		{ID: 5, Name: "Delta", Email: nil, Premium: dec("1500.00"), Count: 2},
	}
}

func ids(rows []rec) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestGlobalFilter_property(t *testing.T) {
	tbl := New(columns(), WithGlobalFilter(searchable))
	tbl.SetData(fixtures())

	for _, q := range []string{"acme", "ACME", "test", "2", "zzz", "c@", ""} {
		t.Run(q, func(t *testing.T) {
			tbl.SetGlobalFilter(q)
			shown := tbl.Visible()

			shownIDs := map[int64]bool{}
			for _, r := range shown {
				shownIDs[r.ID] = true
				require.True(t, searchable(r, q), "row %d shown but does not match %q", r.ID, q)
			}
			for _, r := range tbl.Data() {
				if !shownIDs[r.ID] {
					require.False(t, searchable(r, q), "row %d hidden but matches %q", r.ID, q)
				}
			}
		})
	}

	// filtering hides rows without removing them
	tbl.SetGlobalFilter("zzz")
	assert.Empty(t, tbl.Visible())
	assert.Len(t, tbl.Data(), 5)
}

func TestGlobalFilter_defaultMatchesEverything(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())
	tbl.SetGlobalFilter("nothing matches this")

	assert.Len(t, tbl.Visible(), 5)
}

func TestToggleSort_cycle(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("name", false))
	assert.Equal(t, []SortKey{{Column: "name"}}, tbl.Sort())
	assert.Equal(t, []int64{1, 4, 2, 3, 5}, ids(tbl.Visible()))

	require.NoError(t, tbl.ToggleSort("name", false))
	assert.Equal(t, []SortKey{{Column: "name", Desc: true}}, tbl.Sort())
	assert.Equal(t, []int64{5, 3, 2, 4, 1}, ids(tbl.Visible()))

	require.NoError(t, tbl.ToggleSort("name", false))
	assert.Empty(t, tbl.Sort())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(tbl.Visible()))
}

func TestToggleSort_errors(t *testing.T) {
	cols := columns()
	cols[0].Sortable = false
	tbl := New(cols)

	require.ErrorIs(t, tbl.ToggleSort("id", false), ErrNotSortable)
	require.ErrorIs(t, tbl.ToggleSort("missing", false), ErrUnknownColumn)
}

func TestSort_nullsLastBothDirections(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("premium", false))
	assert.Equal(t, []int64{4, 3, 1, 5, 2}, ids(tbl.Visible()))

	require.NoError(t, tbl.ToggleSort("premium", false))
	assert.Equal(t, []int64{1, 5, 3, 4, 2}, ids(tbl.Visible()))

	tbl.ClearSort()
	require.NoError(t, tbl.ToggleSort("email", false))
	require.NoError(t, tbl.ToggleSort("email", false))
	got := ids(tbl.Visible())
	assert.Equal(t, []int64{2, 5}, got[3:], "absent emails stay last in insertion order")
}

func TestSort_multiAppendsInClickOrder(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("count", false))
	require.NoError(t, tbl.ToggleSort("count", false))
	require.NoError(t, tbl.ToggleSort("name", true))

	assert.Equal(t, []SortKey{{Column: "count", Desc: true}, {Column: "name"}}, tbl.Sort())
	assert.Equal(t, []int64{1, 3, 5, 2, 4}, ids(tbl.Visible()))

	// multi toggle on an existing key flips it in place, then removes it
	require.NoError(t, tbl.ToggleSort("name", true))
	assert.Equal(t, []SortKey{{Column: "count", Desc: true}, {Column: "name", Desc: true}}, tbl.Sort())
	require.NoError(t, tbl.ToggleSort("name", true))
	assert.Equal(t, []SortKey{{Column: "count", Desc: true}}, tbl.Sort())

	// ties beyond the sort keys keep insertion order
	assert.Equal(t, []int64{1, 3, 5, 2, 4}, ids(tbl.Visible()))
}

func TestSort_customCompare(t *testing.T) {
	cols := columns()
	cols[1].Compare = func(a, b rec) int { return len(a.Name) - len(b.Name) }
	tbl := New(cols)
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("name", false))
	assert.Equal(t, []int64{1, 2, 5, 3, 4}, ids(tbl.Visible()))
}

func TestSort_customCompareKeepsAbsentLast(t *testing.T) {
	cols := columns()
	cols[2].Compare = func(a, b rec) int { return len(*a.Email) - len(*b.Email) }
	tbl := New(cols)
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("email", false))
	assert.Equal(t, []int64{1, 3, 4, 2, 5}, ids(tbl.Visible()))

	require.NoError(t, tbl.ToggleSort("email", false))
	assert.Equal(t, []int64{3, 4, 1, 2, 5}, ids(tbl.Visible()))
}

func TestSort_compareWithoutValue(t *testing.T) {
	tbl := New([]Column[rec]{
		{Key: "count", Header: "Count", Sortable: true, Compare: func(a, b rec) int { return a.Count - b.Count }},
	})
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("count", false))
	assert.Equal(t, []int64{4, 2, 1, 3, 5}, ids(tbl.Visible()))
}

func TestColumnFilter(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())

	require.NoError(t, tbl.SetColumnFilter("name", "ACME", "delta"))
	assert.Equal(t, []int64{1, 5}, ids(tbl.Visible()))

	require.ErrorIs(t, tbl.SetColumnFilter("id", "1"), ErrNotFilterable)

	tbl.ClearColumnFilter("name")
	assert.Len(t, tbl.Visible(), 5)

	cols := columns()
	cols[4].Filterable = true
	cols[4].Filter = func(r rec, values []string) bool {
		threshold, _ := strconv.Atoi(values[0])
		return r.Count >= threshold
	}
	tbl = New(cols)
	tbl.SetData(fixtures())
	require.NoError(t, tbl.SetColumnFilter("count", "2"))
	assert.Equal(t, []int64{1, 3, 5}, ids(tbl.Visible()))
}

func TestPagination_resetsAndClamps(t *testing.T) {
	var rows []rec
	for i := range 25 {
		rows = append(rows, rec{ID: int64(i + 1), Name: fmt.Sprintf("row %02d", i+1)})
	}

	tbl := New(columns(), WithGlobalFilter(searchable))
	tbl.SetData(rows)

	assert.Equal(t, 3, tbl.PageCount())
	tbl.NextPage()
	tbl.NextPage()
	tbl.NextPage()
	assert.Equal(t, 2, tbl.Page())

	v := tbl.View()
	require.Len(t, v.Rows, 5)
	assert.Equal(t, int64(21), v.Rows[0].Item.ID)

	tbl.PrevPage()
	assert.Equal(t, 1, tbl.Page())

	// filter change resets to the first page
	tbl.SetGlobalFilter("row 1")
	assert.Equal(t, 0, tbl.Page())

	// sort change resets too
	tbl.SetPage(1)
	require.NoError(t, tbl.ToggleSort("id", false))
	assert.Equal(t, 0, tbl.Page())

	// shrinking data clamps the page index
	tbl.SetGlobalFilter("")
	tbl.SetPage(2)
	tbl.SetData(rows[:3])
	assert.Equal(t, 0, tbl.Page())
	assert.Equal(t, 1, tbl.PageCount())

	tbl.SetPage(-4)
	assert.Equal(t, 0, tbl.Page())

	tbl = New(columns(), WithPageSize[rec](2))
	tbl.SetData(rows[:5])
	assert.Equal(t, 3, tbl.PageCount())
}

func TestView_statusPrecedence(t *testing.T) {
	tbl := New(columns(), WithEmptyMessage[rec]("No customers found."))

	v := tbl.View()
	assert.Equal(t, StatusEmpty, v.Status)
	assert.Equal(t, "No customers found.", v.EmptyMessage)

	tbl.SetData(fixtures())
	assert.Equal(t, StatusRows, tbl.View().Status)

	tbl.SetLoading(true)
	tbl.SetError(errors.New("boom"))
	tbl.SetLoading(true)
	v = tbl.View()
	assert.Equal(t, StatusLoading, v.Status)
	assert.Empty(t, v.Rows)

	tbl.SetLoading(false)
	v = tbl.View()
	assert.Equal(t, StatusError, v.Status)
	assert.False(t, v.ShowToolbar)
	assert.Empty(t, v.Rows)

	tbl.SetError(nil)
	tbl.SetGlobalFilter("anything")
	assert.Equal(t, StatusRows, tbl.View().Status)

	tbl = New(columns(), WithGlobalFilter(searchable))
	tbl.SetData(fixtures())
	tbl.SetGlobalFilter("nope")
	v = tbl.View()
	assert.Equal(t, StatusEmpty, v.Status)
	assert.True(t, v.ShowToolbar)
}

func TestView_headersAndVisibility(t *testing.T) {
	tbl := New(columns())
	tbl.SetData(fixtures())

	require.NoError(t, tbl.ToggleSort("name", true))
	require.NoError(t, tbl.ToggleSort("id", true))
	require.NoError(t, tbl.ToggleSort("id", true))
	require.NoError(t, tbl.SetColumnVisible("email", false))

	v := tbl.View()
	require.Len(t, v.Headers, 4)
	assert.False(t, v.HasActions)

	byKey := map[string]HeaderCell{}
	for _, h := range v.Headers {
		byKey[h.Key] = h
	}
	assert.Equal(t, 1, byKey["name"].SortOrder)
	assert.Equal(t, 2, byKey["id"].SortOrder)
	assert.True(t, byKey["id"].Desc)
	assert.NotContains(t, byKey, "email")
	assert.Len(t, v.Rows[0].Cells, 4)

	require.ErrorIs(t, tbl.SetColumnVisible("nope", true), ErrUnknownColumn)
}

func TestInvoke_doesNotClickRow(t *testing.T) {
	var clicked, deleted []int64

	tbl := New(columns(),
		WithRowClick(func(r rec) { clicked = append(clicked, r.ID) }),
		WithActions(func(r rec) []Action[rec] {
			return []Action[rec]{{
				Label:       "Delete",
				Destructive: true,
				Handler: func(ctx context.Context, r rec) error {
					deleted = append(deleted, r.ID)
					return nil
				},
			}}
		}),
	)
	tbl.SetData(fixtures())

	require.NoError(t, tbl.Invoke(context.Background(), 1, "Delete"))
	assert.Equal(t, []int64{2}, deleted)
	assert.Empty(t, clicked)

	require.NoError(t, tbl.Click(0))
	assert.Equal(t, []int64{1}, clicked)

	require.ErrorIs(t, tbl.Invoke(context.Background(), 0, "Archive"), ErrNoAction)
	require.ErrorIs(t, tbl.Invoke(context.Background(), 99, "Delete"), ErrNoRow)
	require.ErrorIs(t, tbl.Click(-1), ErrNoRow)

	v := tbl.View()
	assert.True(t, v.HasActions)
	assert.True(t, v.Rows[0].Selected)
	require.Len(t, v.Rows[0].Actions, 1)
}

func TestInvoke_inFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	tbl := New(columns(),
		WithRowKey(func(r rec) string { return strconv.FormatInt(r.ID, 10) }),
		WithActions(func(r rec) []Action[rec] {
			return []Action[rec]{{
				Label: "Delete",
				Handler: func(ctx context.Context, r rec) error {
					close(started)
					<-release
					return nil
				},
			}}
		}),
	)
	tbl.SetData(fixtures())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, tbl.Invoke(context.Background(), 0, "Delete"))
	}()

	<-started
	require.True(t, tbl.InFlight(fixtures()[0]))
	require.True(t, tbl.View().Rows[0].InFlight)
	require.ErrorIs(t, tbl.Invoke(context.Background(), 0, "Delete"), ErrActionInFlight)

	close(release)
	wg.Wait()

	require.False(t, tbl.InFlight(fixtures()[0]))
}

func TestInvokeFor_followsRowAcrossReorder(t *testing.T) {
	var got []int64
	tbl := New(columns(),
		WithRowKey(func(r rec) string { return strconv.FormatInt(r.ID, 10) }),
		WithActions(func(r rec) []Action[rec] {
			return []Action[rec]{{Label: "Delete", Handler: func(ctx context.Context, r rec) error {
				got = append(got, r.ID)
				return nil
			}}}
		}),
	)
	tbl.SetData(fixtures())
	target := tbl.View().Rows[0].Item

	// the row moves to another position before the action runs
	require.NoError(t, tbl.ToggleSort("name", false))
	require.NoError(t, tbl.ToggleSort("name", false))
	tbl.SetGlobalFilter("charlie")

	require.NoError(t, tbl.InvokeFor(context.Background(), target, "Delete"))
	assert.Equal(t, []int64{1}, got)

	tbl.Remove(func(r rec) bool { return r.ID == 1 })
	require.ErrorIs(t, tbl.InvokeFor(context.Background(), target, "Delete"), ErrNoRow)
	require.ErrorIs(t, tbl.InvokeFor(context.Background(), fixtures()[1], "Archive"), ErrNoAction)
}

func TestRemove(t *testing.T) {
	tbl := New(columns(), WithPageSize[rec](2))
	tbl.SetData(fixtures())
	tbl.SetPage(2)

	tbl.Remove(func(r rec) bool { return r.ID == 5 })
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(tbl.Data()))
	assert.Equal(t, 1, tbl.Page())
}

func TestHelpers(t *testing.T) {
	assert.True(t, ContainsFold("", nil))
	assert.False(t, ContainsFold("a", nil, nil))
	assert.True(t, ContainsFold("ACM", nil, strp("acme")))

	assert.True(t, MatchText("150", dec("1500")))
	assert.True(t, MatchText("42", int64(42)))
	assert.False(t, MatchText("x", (*string)(nil)))

	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "", Text((*string)(nil)))
	assert.Equal(t, "7", Text(int64(7)))
	assert.Equal(t, "1.5", Text(1.5))
	assert.Equal(t, "1500.00", Text(dec("1500")))
	assert.Equal(t, "1500.00", Text(decimal.NewNullDecimal(decimal.RequireFromString("1500"))))
	assert.Equal(t, "hello", Text(strp("hello")))

	assert.Negative(t, CompareValues("apple", "Banana"))
	assert.Negative(t, CompareValues(int64(2), int64(10)))
	assert.Negative(t, CompareValues(dec("9.5"), dec("10")))
	assert.Negative(t, CompareValues(false, true))
	assert.Zero(t, CompareValues(strp("x"), "x"))

	assert.True(t, IsAbsent(nil))
	assert.True(t, IsAbsent((*decimal.Decimal)(nil)))
	assert.True(t, IsAbsent(decimal.NullDecimal{}))
	assert.False(t, IsAbsent(0))
}

func TestRender(t *testing.T) {
	tbl := New(columns(),
		WithGlobalFilter(searchable),
		WithActions(func(r rec) []Action[rec] {
			return []Action[rec]{{Label: "View"}, {Label: "Delete", Destructive: true, Separator: true}}
		}),
	)
	tbl.SetData(fixtures())
	require.NoError(t, tbl.ToggleSort("name", false))

	out := Render(tbl.View(), 0)
	assert.Contains(t, out, "Name ▲1")
	assert.Contains(t, out, "Actions")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Page 1 of 1 (5 rows)")

	tbl.SetGlobalFilter("nothing")
	out = Render(tbl.View(), 0)
	assert.Contains(t, out, "No results.")

	tbl.SetError(errors.New("Failed to fetch customers"))
	out = Render(tbl.View(), 0)
	assert.Contains(t, out, "Failed to fetch customers")
	assert.NotContains(t, out, "Filter:")
	assert.False(t, strings.Contains(out, "Actions"))

	tbl.SetLoading(true)
	assert.Contains(t, Render(tbl.View(), 0), "Loading...")
}
