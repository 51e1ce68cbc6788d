// Package templates holds the templ components of the table UI.
//
// Edit the .templ files and run `templ generate`; the *_templ.go files are
// generated from them.
package templates

import (
	"net/url"
	"strconv"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

// PageSizes offered by the page size selector.
var PageSizes = []int{10, 25, 50, 100}

// TableParams is everything the table components need.
type TableParams struct {
	Title  string
	Page   *tableview.Page
	State  core.TableState
	Notice string
}

func (p TableParams) view() string {
	return p.Page.View.String()
}

func (p TableParams) pinnedColumn(col string) (core.PinnedColumn, bool) {
	for _, pc := range p.State.PinnedColumns {
		if pc.Name == col {
			return pc, true
		}
	}
	return core.PinnedColumn{}, false
}

func (p TableParams) isPinned(col string) bool {
	_, ok := p.pinnedColumn(col)
	return ok
}

// stickyStyle positions a pinned column at its offset from the pinned side.
func (p TableParams) stickyStyle(col string) string {
	pc, _ := p.pinnedColumn(col)
	side := "left"
	if pc.Side == core.PinRight {
		side = "right"
	}
	return side + ":" + strconv.Itoa(pc.Offset) + "px"
}

func (p TableParams) rowIDFields() []hiddenField {
	ids := p.Page.RowIDs()
	fields := make([]hiddenField, len(ids))
	for i, id := range ids {
		fields[i] = hiddenField{Name: "ids", Value: id}
	}
	return fields
}

// hiddenField is a hidden form input.
type hiddenField struct {
	Name  string
	Value string
}

// tablePath builds /tables/<view>/<segments...> with each segment path-escaped.
func tablePath(view string, segments ...string) string {
	p := "/tables/" + url.PathEscape(view)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func sortIndicator(s core.SortState, col string) string {
	if s.Column != col {
		return ""
	}
	switch s.Direction {
	case core.SortAsc:
		return " ▲"
	case core.SortDesc:
		return " ▼"
	default:
		return ""
	}
}

func rowClass(row tableview.Row) string {
	switch {
	case row.Pinned:
		return "pinned"
	case row.Selected:
		return "selected"
	default:
		return ""
	}
}

func selectLabel(row tableview.Row) string {
	if row.Selected {
		return "☑"
	}
	return "☐"
}

func pinLabel(row tableview.Row) string {
	if row.Pinned {
		return "Unpin"
	}
	return "Pin"
}
