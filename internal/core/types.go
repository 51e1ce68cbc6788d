package core

import (
	"maps"
	"strings"
)

// DefaultPageSize is the number of rows per page for a new table.
const DefaultPageSize = 25

// SortDirection is the direction of the active sort column.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortState describes the single active sort column.
// Direction is meaningless when Column is empty.
type SortState struct {
	Column    string        `json:"column,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// Active reports whether a sort column is set.
func (s SortState) Active() bool {
	return s.Column != ""
}

// FilterState holds the global free-text filter and per-column filters.
// Empty values mean "no filter".
type FilterState struct {
	Global        string            `json:"global"`
	ColumnFilters map[string]string `json:"columnFilters"`
}

// Active reports whether any filter is set.
func (f FilterState) Active() bool {
	if f.Global != "" {
		return true
	}
	for _, v := range f.ColumnFilters {
		if v != "" {
			return true
		}
	}
	return false
}

func (f FilterState) clone() FilterState {
	cp := FilterState{Global: f.Global, ColumnFilters: make(map[string]string, len(f.ColumnFilters))}
	maps.Copy(cp.ColumnFilters, f.ColumnFilters)
	return cp
}

// PinSide is the edge a pinned column sticks to.
type PinSide string

const (
	PinLeft  PinSide = "left"
	PinRight PinSide = "right"
)

// ParsePinSide converts a user-supplied side, defaulting to PinLeft.
func ParsePinSide(s string) PinSide {
	if strings.EqualFold(strings.TrimSpace(s), string(PinRight)) {
		return PinRight
	}
	return PinLeft
}

// PinnedColumn is a column kept visible during horizontal scroll.
type PinnedColumn struct {
	Name   string  `json:"name"`
	Side   PinSide `json:"side"`
	Offset int     `json:"offset"` // pixels from the pinned edge
}

// TableState is the complete interaction state of one table instance.
type TableState struct {
	Page          int            `json:"page"`
	PageSize      int            `json:"pageSize"`
	Sort          SortState      `json:"sort"`
	Filters       FilterState    `json:"filters"`
	SelectedRows  []string       `json:"selectedRows"`
	PinnedColumns []PinnedColumn `json:"pinnedColumns"`
	PinnedRows    []string       `json:"pinnedRows"`
	Loading       bool           `json:"loading"`
	Error         string         `json:"error,omitempty"` // empty when the last request succeeded
}

// Op names a Store operation in change notifications.
type Op string

const (
	OpResetFilters       Op = "reset_filters"
	OpResetSort          Op = "reset_sort"
	OpSetSort            Op = "set_sort"
	OpSetPage            Op = "set_page"
	OpSetPageSize        Op = "set_page_size"
	OpSetGlobalFilter    Op = "set_global_filter"
	OpSetColumnFilter    Op = "set_column_filter"
	OpToggleRowSelection Op = "toggle_row_selection"
	OpToggleAllRows      Op = "toggle_all_rows"
	OpClearSelection     Op = "clear_selection"
	OpToggleRowPin       Op = "toggle_row_pin"
	OpClearPinnedRows    Op = "clear_pinned_rows"
	OpPinColumn          Op = "pin_column"
	OpUnpinColumn        Op = "unpin_column"
	OpClearPinnedColumns Op = "clear_pinned_columns"
	OpSetLoading         Op = "set_loading"
	OpSetError           Op = "set_error"
)

// Change is delivered to subscribers after a mutating operation.
type Change struct {
	Op    Op
	State TableState
}
