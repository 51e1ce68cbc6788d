package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 1, s.Page())
	assert.Equal(t, DefaultPageSize, s.PageSize())
	assert.False(t, s.Sort().Active())
	assert.False(t, s.Filters().Active())
	assert.Empty(t, s.SelectedRowIDs())
	assert.Empty(t, s.PinnedRowIDs())
	assert.Empty(t, s.PinnedColumns())
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
}

func TestNewStore_WithPageSize(t *testing.T) {
	assert.Equal(t, 50, NewStore(WithPageSize(50)).PageSize())
	assert.Equal(t, DefaultPageSize, NewStore(WithPageSize(0)).PageSize())
}

func TestSetSort_CyclesOnSameColumn(t *testing.T) {
	s := NewStore()

	want := []SortDirection{SortAsc, SortDesc, SortNone, SortAsc, SortDesc, SortNone}
	for i, dir := range want {
		s.SetSort("name")
		assert.Equal(t, dir, s.Sort().Direction, "call %d", i+1)
		if dir == SortNone {
			assert.Empty(t, s.Sort().Column, "call %d should clear the column", i+1)
		} else {
			assert.Equal(t, "name", s.Sort().Column, "call %d", i+1)
		}
	}
}

func TestSetSort_DifferentColumnStartsAtAsc(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Store)
	}{
		{name: "from no sort", setup: func(*Store) {}},
		{name: "from asc", setup: func(s *Store) { s.SetSort("status") }},
		{name: "from desc", setup: func(s *Store) { s.SetSort("status"); s.SetSort("status") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tt.setup(s)

			s.SetSort("name")

			assert.Equal(t, SortState{Column: "name", Direction: SortAsc}, s.Sort())
		})
	}
}

func TestSetSort_ResetsPage(t *testing.T) {
	s := NewStore()
	s.SetSort("name")
	s.SetSort("name")

	// Every transition, including the clearing one, returns to page 1.
	for range 3 {
		s.SetPage(7)
		s.SetSort("name")
		assert.Equal(t, 1, s.Page())
	}
}

func TestResetSort(t *testing.T) {
	s := NewStore()
	s.SetSort("name")
	s.SetPage(4)

	s.ResetSort()

	assert.Equal(t, SortState{}, s.Sort())
	assert.Equal(t, 4, s.Page(), "ResetSort leaves the cursor alone")
}

func TestFilters_ResetPage(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Store)
	}{
		{name: "reset filters", op: func(s *Store) { s.ResetFilters() }},
		{name: "global filter", op: func(s *Store) { s.SetGlobalFilter("acme") }},
		{name: "column filter", op: func(s *Store) { s.SetColumnFilter("Status", "active") }},
		{name: "clear column filter", op: func(s *Store) { s.SetColumnFilter("Status", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.SetPage(9)

			tt.op(s)

			assert.Equal(t, 1, s.Page())
		})
	}
}

func TestResetFilters_ClearsEverything(t *testing.T) {
	s := NewStore()
	s.SetGlobalFilter("acme")
	s.SetColumnFilter("Status", "active")
	s.SetColumnFilter("Address", "berlin")

	s.ResetFilters()

	f := s.Filters()
	assert.Empty(t, f.Global)
	assert.Empty(t, f.ColumnFilters)
	assert.False(t, f.Active())
}

func TestSetColumnFilter_EmptyValueRemovesEntry(t *testing.T) {
	s := NewStore()
	s.SetColumnFilter("Status", "active")
	require.Equal(t, "active", s.Filters().ColumnFilters["Status"])

	s.SetColumnFilter("Status", "")

	_, ok := s.Filters().ColumnFilters["Status"]
	assert.False(t, ok)
}

func TestFilters_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.SetColumnFilter("Status", "active")

	f := s.Filters()
	f.ColumnFilters["Status"] = "mutated"

	assert.Equal(t, "active", s.Filters().ColumnFilters["Status"])
}

func TestPagination(t *testing.T) {
	s := NewStore()

	s.SetPage(3)
	assert.Equal(t, 3, s.Page())

	s.SetPage(0)
	assert.Equal(t, 1, s.Page(), "pages below 1 clamp")

	s.SetPage(5)
	s.SetPageSize(-1)
	assert.Equal(t, DefaultPageSize, s.PageSize(), "non-positive size ignored")
	assert.Equal(t, 5, s.Page())

	s.SetPageSize(DefaultPageSize)
	assert.Equal(t, 5, s.Page(), "unchanged size keeps the cursor")

	s.SetPageSize(100)
	assert.Equal(t, 100, s.PageSize())
	assert.Equal(t, 1, s.Page())
}

func TestToggleRowSelection_TwiceRestoresMembership(t *testing.T) {
	s := NewStore()
	s.ToggleRowSelection("a")
	s.ToggleRowSelection("b")
	before := s.SelectedRowIDs()

	for _, id := range []string{"a", "c"} {
		s.ToggleRowSelection(id)
		s.ToggleRowSelection(id)
		assert.ElementsMatch(t, before, s.SelectedRowIDs(), "toggle %q twice", id)
	}
}

func TestToggleRowSelection(t *testing.T) {
	s := NewStore()

	s.ToggleRowSelection("r1")
	assert.True(t, s.IsSelected("r1"))
	assert.Equal(t, 1, s.SelectedCount())

	s.ToggleRowSelection("r1")
	assert.False(t, s.IsSelected("r1"))
	assert.Equal(t, 0, s.SelectedCount())
}

func TestToggleAllRows(t *testing.T) {
	s := NewStore()
	ids := []string{"a", "b", "c"}

	s.ToggleAllRows(ids)
	assert.Equal(t, ids, s.SelectedRowIDs())

	s.ToggleAllRows(ids)
	assert.Empty(t, s.SelectedRowIDs())
}

func TestToggleAllRows_PartialSelectionSelectsRest(t *testing.T) {
	s := NewStore()
	s.ToggleRowSelection("b")

	s.ToggleAllRows([]string{"a", "b", "c"})

	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.SelectedRowIDs())
	assert.Equal(t, 3, s.SelectedCount())
}

func TestToggleAllRows_LeavesOtherIDs(t *testing.T) {
	s := NewStore()
	s.ToggleRowSelection("outside")
	ids := []string{"a", "b"}

	s.ToggleAllRows(ids)
	s.ToggleAllRows(ids)

	assert.Equal(t, []string{"outside"}, s.SelectedRowIDs())
}

func TestToggleAllRows_EmptyIsNoop(t *testing.T) {
	s := NewStore()
	s.ToggleRowSelection("a")

	var notified int
	s.Subscribe(func(Change) { notified++ })

	s.ToggleAllRows(nil)
	s.ToggleAllRows([]string{})

	assert.Equal(t, []string{"a"}, s.SelectedRowIDs())
	assert.Zero(t, notified)
}

func TestClearSelection(t *testing.T) {
	s := NewStore()
	s.ToggleAllRows([]string{"a", "b"})

	s.ClearSelection()

	assert.Zero(t, s.SelectedCount())
	assert.Empty(t, s.SelectedRowIDs())
}

func TestSelectedRowIDs_InsertionOrderAndCopy(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"z", "a", "m"} {
		s.ToggleRowSelection(id)
	}

	ids := s.SelectedRowIDs()
	assert.Equal(t, []string{"z", "a", "m"}, ids)

	ids[0] = "mutated"
	assert.True(t, s.IsSelected("z"))
}

func TestRowPins_IndependentOfSelection(t *testing.T) {
	s := NewStore()
	s.ToggleRowSelection("a")

	s.ToggleRowPin("a")
	s.ToggleRowPin("b")
	assert.Equal(t, []string{"a", "b"}, s.PinnedRowIDs())
	assert.True(t, s.IsPinned("b"))
	assert.Equal(t, []string{"a"}, s.SelectedRowIDs())

	s.ToggleRowPin("a")
	assert.Equal(t, []string{"b"}, s.PinnedRowIDs())

	s.ClearPinnedRows()
	assert.Empty(t, s.PinnedRowIDs())
	assert.True(t, s.IsSelected("a"))
}

func TestPinColumn(t *testing.T) {
	s := NewStore()

	s.PinColumn("Legal Name", PinLeft, 0)
	s.PinColumn("Status", PinRight, 0)
	s.PinColumn("Legal Name", PinLeft, 48)

	assert.Equal(t, []PinnedColumn{
		{Name: "Legal Name", Side: PinLeft, Offset: 48},
		{Name: "Status", Side: PinRight, Offset: 0},
	}, s.PinnedColumns())

	s.UnpinColumn("Legal Name")
	s.UnpinColumn("unknown")
	assert.Equal(t, []PinnedColumn{{Name: "Status", Side: PinRight}}, s.PinnedColumns())

	s.ClearPinnedColumns()
	assert.Empty(t, s.PinnedColumns())
}

func TestRequestStatus(t *testing.T) {
	s := NewStore()

	s.SetLoading(true)
	s.SetError("api request failed: 500 Internal Server Error")
	assert.True(t, s.Loading(), "loading and error are independent")
	assert.Equal(t, "api request failed: 500 Internal Server Error", s.Err())

	s.SetLoading(false)
	s.ClearError()
	assert.False(t, s.Loading())
	assert.Empty(t, s.Err())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := NewStore()
	s.SetSort("name")
	s.SetColumnFilter("Status", "active")
	s.ToggleRowSelection("a")
	s.ToggleRowPin("b")
	s.PinColumn("name", PinLeft, 0)

	snap := s.Snapshot()
	snap.Filters.ColumnFilters["Status"] = "x"
	snap.SelectedRows[0] = "x"
	snap.PinnedRows[0] = "x"
	snap.PinnedColumns[0].Offset = 99

	assert.Equal(t, "active", s.Filters().ColumnFilters["Status"])
	assert.Equal(t, []string{"a"}, s.SelectedRowIDs())
	assert.Equal(t, []string{"b"}, s.PinnedRowIDs())
	assert.Equal(t, 0, s.PinnedColumns()[0].Offset)
	assert.Equal(t, SortState{Column: "name", Direction: SortAsc}, snap.Sort)
}

func TestSubscribe(t *testing.T) {
	s := NewStore()

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	s.SetSort("name")
	s.ToggleRowSelection("a")

	require.Len(t, changes, 2)
	assert.Equal(t, OpSetSort, changes[0].Op)
	assert.Equal(t, SortAsc, changes[0].State.Sort.Direction)
	assert.Equal(t, OpToggleRowSelection, changes[1].Op)
	assert.Equal(t, []string{"a"}, changes[1].State.SelectedRows)

	unsubscribe()
	s.ClearSelection()
	assert.Len(t, changes, 2)
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	s := NewStore()

	var order []int
	for i := range 5 {
		s.Subscribe(func(Change) { order = append(order, i) })
	}

	s.SetPage(2)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestParsePinSide(t *testing.T) {
	assert.Equal(t, PinRight, ParsePinSide("Right"))
	assert.Equal(t, PinLeft, ParsePinSide("left"))
	assert.Equal(t, PinLeft, ParsePinSide(""))
}
