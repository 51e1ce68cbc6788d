package tableview

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
)

// Row is one rendered table row.
type Row struct {
	ID       string
	Cells    map[string]string
	Selected bool
	Pinned   bool
}

// Cell returns the formatted value of column, or "" when absent.
func (r Row) Cell(column string) string {
	return r.Cells[column]
}

// Page is a fetched page shaped for display.
type Page struct {
	View       View
	Columns    []string
	Rows       []Row
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// RowIDs returns the ids of the rows on this page in display order.
func (p *Page) RowIDs() []string {
	ids := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		ids[i] = r.ID
	}
	return ids
}

// HasPrev reports whether a previous page exists.
func (p *Page) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists.
func (p *Page) HasNext() bool {
	return p.Page < p.TotalPages
}

// entityPage shapes an entities response.
func entityPage(view View, resp *apiclient.Page[apiclient.Entity], st core.TableState) *Page {
	records := make([]apiclient.Record, len(resp.Results))
	extra := make(map[string]struct{})
	for i, e := range resp.Results {
		records[i] = e.Record()
		for k := range e.Extra {
			extra[k] = struct{}{}
		}
	}

	columns := resp.Columns
	if len(columns) == 0 {
		columns = append(slices.Clone(apiclient.EntityFields), slices.Sorted(maps.Keys(extra))...)
	}

	return buildPage(view, columns, records, meta{resp.Total, resp.Page, resp.PageSize}, st,
		func(_ int, r apiclient.Record) string {
			return formatCell(r[apiclient.FieldRegistrationID])
		})
}

// recordPage shapes a custom-table response.
func recordPage(view View, resp *apiclient.Page[apiclient.Record], st core.TableState) *Page {
	columns := resp.Columns
	if len(columns) == 0 {
		keys := make(map[string]struct{})
		for _, r := range resp.Results {
			for k := range r {
				keys[k] = struct{}{}
			}
		}
		columns = slices.Sorted(maps.Keys(keys))
	}

	return buildPage(view, columns, resp.Results, meta{resp.Total, resp.Page, resp.PageSize}, st,
		func(abs int, r apiclient.Record) string {
			for _, key := range []string{"id", "ID"} {
				if v, ok := r[key]; ok && v != nil {
					return formatCell(v)
				}
			}
			return "row-" + strconv.Itoa(abs)
		})
}

type meta struct {
	total, page, pageSize int
}

func buildPage(view View, columns []string, records []apiclient.Record, m meta, st core.TableState, rowID func(int, apiclient.Record) string) *Page {
	page := m.page
	if page <= 0 {
		page = st.Page
	}
	pageSize := m.pageSize
	if pageSize <= 0 {
		pageSize = st.PageSize
	}

	selected := toSet(st.SelectedRows)
	pinned := toSet(st.PinnedRows)
	offset := (page - 1) * pageSize

	rows := make([]Row, len(records))
	for i, rec := range records {
		cells := make(map[string]string, len(columns))
		for _, col := range columns {
			cells[col] = formatCell(rec[col])
		}
		id := rowID(offset+i, rec)
		_, isSel := selected[id]
		_, isPin := pinned[id]
		rows[i] = Row{ID: id, Cells: cells, Selected: isSel, Pinned: isPin}
	}

	// Pinned rows first; relative order otherwise preserved.
	slices.SortStableFunc(rows, func(a, b Row) int {
		switch {
		case a.Pinned == b.Pinned:
			return 0
		case a.Pinned:
			return -1
		default:
			return 1
		}
	})

	return &Page{
		View:       view,
		Columns:    columns,
		Rows:       rows,
		Total:      m.total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(m.total, pageSize),
	}
}

func totalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// formatCell converts a decoded JSON value to display text.
func formatCell(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case []any, map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}
