package core

import (
	"maps"
	"slices"
)

// Store is the single source of truth for one table instance.
//
// Store is not safe for concurrent use. Callers that share a Store across
// goroutines must serialize access themselves.
type Store struct {
	page          int
	pageSize      int
	sort          SortState
	filters       FilterState
	selected      rowSet
	pinnedColumns []PinnedColumn
	pinnedRows    rowSet
	loading       bool
	err           string

	subscribers map[int]func(Change)
	nextSubID   int
}

// Option configures a new Store.
type Option func(*Store)

// WithPageSize overrides DefaultPageSize. Non-positive sizes are ignored.
func WithPageSize(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewStore creates a Store on page 1 with no sort, filters, selection or pins.
func NewStore(opts ...Option) *Store {
	s := &Store{
		page:        1,
		pageSize:    DefaultPageSize,
		filters:     FilterState{ColumnFilters: make(map[string]string)},
		selected:    newRowSet(),
		pinnedRows:  newRowSet(),
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* ----------------------------------------
	SUBSCRIPTIONS
---------------------------------------- */

// Subscribe registers fn to be called after every mutating operation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		delete(s.subscribers, id)
	}
}

// notify delivers a snapshot to subscribers in registration order.
func (s *Store) notify(op Op) {
	if len(s.subscribers) == 0 {
		return
	}
	change := Change{Op: op, State: s.Snapshot()}
	for _, id := range slices.Sorted(maps.Keys(s.subscribers)) {
		if fn, ok := s.subscribers[id]; ok {
			fn(change)
		}
	}
}

/* ----------------------------------------
	SORTING
---------------------------------------- */

// SetSort advances the sort cycle for column: asc, then desc, then cleared.
// Sorting a different column starts over at asc. The page always resets to 1.
func (s *Store) SetSort(column string) {
	if s.sort.Column == column {
		switch s.sort.Direction {
		case SortAsc:
			s.sort.Direction = SortDesc
		case SortDesc:
			s.sort = SortState{}
		default:
			s.sort.Direction = SortAsc
		}
	} else {
		s.sort = SortState{Column: column, Direction: SortAsc}
	}
	s.page = 1
	s.notify(OpSetSort)
}

// ResetSort clears the sort column and direction.
func (s *Store) ResetSort() {
	s.sort = SortState{}
	s.notify(OpResetSort)
}

// Sort returns the active sort.
func (s *Store) Sort() SortState {
	return s.sort
}

/* ----------------------------------------
	FILTERS
---------------------------------------- */

// ResetFilters clears the global filter and every column filter.
func (s *Store) ResetFilters() {
	s.filters.Global = ""
	s.filters.ColumnFilters = make(map[string]string)
	s.page = 1
	s.notify(OpResetFilters)
}

// SetGlobalFilter replaces the free-text filter applied across all columns.
func (s *Store) SetGlobalFilter(text string) {
	s.filters.Global = text
	s.page = 1
	s.notify(OpSetGlobalFilter)
}

// SetColumnFilter sets the filter for one column. An empty value removes it.
func (s *Store) SetColumnFilter(column, value string) {
	if value == "" {
		delete(s.filters.ColumnFilters, column)
	} else {
		s.filters.ColumnFilters[column] = value
	}
	s.page = 1
	s.notify(OpSetColumnFilter)
}

// Filters returns a copy of the active filters.
func (s *Store) Filters() FilterState {
	return s.filters.clone()
}

/* ----------------------------------------
	PAGINATION
---------------------------------------- */

// SetPage moves the cursor. Pages below 1 clamp to 1.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.page = page
	s.notify(OpSetPage)
}

// SetPageSize changes rows per page and returns to page 1.
// Non-positive sizes and the current size are ignored.
func (s *Store) SetPageSize(size int) {
	if size <= 0 || size == s.pageSize {
		return
	}
	s.pageSize = size
	s.page = 1
	s.notify(OpSetPageSize)
}

// Page returns the current 1-indexed page.
func (s *Store) Page() int {
	return s.page
}

// PageSize returns the number of rows per page.
func (s *Store) PageSize() int {
	return s.pageSize
}

/* ----------------------------------------
	ROW SELECTION
---------------------------------------- */

// ToggleRowSelection selects rowID if it is not selected, otherwise deselects it.
func (s *Store) ToggleRowSelection(rowID string) {
	s.selected.toggle(rowID)
	s.notify(OpToggleRowSelection)
}

// ToggleAllRows selects every id in allRowIDs unless all of them are already
// selected, in which case it deselects them. Other selected ids are kept.
// An empty slice changes nothing.
func (s *Store) ToggleAllRows(allRowIDs []string) {
	if len(allRowIDs) == 0 {
		return
	}

	allSelected := true
	for _, id := range allRowIDs {
		if !s.selected.has(id) {
			allSelected = false
			break
		}
	}

	for _, id := range allRowIDs {
		if allSelected {
			s.selected.remove(id)
		} else {
			s.selected.add(id)
		}
	}
	s.notify(OpToggleAllRows)
}

// ClearSelection deselects every row.
func (s *Store) ClearSelection() {
	s.selected.clear()
	s.notify(OpClearSelection)
}

// IsSelected reports whether rowID is selected.
func (s *Store) IsSelected(rowID string) bool {
	return s.selected.has(rowID)
}

// SelectedRowIDs returns the selected ids in the order they were selected.
func (s *Store) SelectedRowIDs() []string {
	return s.selected.snapshot()
}

// SelectedCount returns the number of selected rows.
func (s *Store) SelectedCount() int {
	return s.selected.len()
}

/* ----------------------------------------
	PINNING
---------------------------------------- */

// ToggleRowPin pins rowID if it is not pinned, otherwise unpins it.
func (s *Store) ToggleRowPin(rowID string) {
	s.pinnedRows.toggle(rowID)
	s.notify(OpToggleRowPin)
}

// ClearPinnedRows unpins every row.
func (s *Store) ClearPinnedRows() {
	s.pinnedRows.clear()
	s.notify(OpClearPinnedRows)
}

// IsPinned reports whether rowID is pinned.
func (s *Store) IsPinned(rowID string) bool {
	return s.pinnedRows.has(rowID)
}

// PinnedRowIDs returns the pinned ids in the order they were pinned.
func (s *Store) PinnedRowIDs() []string {
	return s.pinnedRows.snapshot()
}

// PinColumn pins a column to side at offset. Pinning an already pinned
// column updates it in place so display order is kept.
func (s *Store) PinColumn(name string, side PinSide, offset int) {
	col := PinnedColumn{Name: name, Side: side, Offset: offset}
	if i := s.pinnedColumnIndex(name); i >= 0 {
		s.pinnedColumns[i] = col
	} else {
		s.pinnedColumns = append(s.pinnedColumns, col)
	}
	s.notify(OpPinColumn)
}

// UnpinColumn removes a pinned column. Unknown names are ignored.
func (s *Store) UnpinColumn(name string) {
	i := s.pinnedColumnIndex(name)
	if i < 0 {
		return
	}
	s.pinnedColumns = slices.Delete(s.pinnedColumns, i, i+1)
	s.notify(OpUnpinColumn)
}

// ClearPinnedColumns unpins every column.
func (s *Store) ClearPinnedColumns() {
	s.pinnedColumns = nil
	s.notify(OpClearPinnedColumns)
}

// PinnedColumns returns pinned columns in display order.
func (s *Store) PinnedColumns() []PinnedColumn {
	return slices.Clone(s.pinnedColumns)
}

func (s *Store) pinnedColumnIndex(name string) int {
	return slices.IndexFunc(s.pinnedColumns, func(c PinnedColumn) bool {
		return c.Name == name
	})
}

/* ----------------------------------------
	REQUEST STATUS
---------------------------------------- */

// SetLoading records whether a fetch is in flight.
func (s *Store) SetLoading(loading bool) {
	s.loading = loading
	s.notify(OpSetLoading)
}

// SetError records the message of the last failed request.
func (s *Store) SetError(msg string) {
	s.err = msg
	s.notify(OpSetError)
}

// ClearError forgets the last failure.
func (s *Store) ClearError() {
	s.SetError("")
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	return s.loading
}

// Err returns the last failure message, or "" if there is none.
func (s *Store) Err() string {
	return s.err
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() TableState {
	return TableState{
		Page:          s.page,
		PageSize:      s.pageSize,
		Sort:          s.sort,
		Filters:       s.filters.clone(),
		SelectedRows:  s.selected.snapshot(),
		PinnedColumns: append([]PinnedColumn{}, s.pinnedColumns...),
		PinnedRows:    s.pinnedRows.snapshot(),
		Loading:       s.loading,
		Error:         s.err,
	}
}
