package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	pinnedStyle   = cellStyle.Foreground(lipgloss.Color("220"))
	selectedStyle = cellStyle.Foreground(lipgloss.Color("39"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	footerStyle   = lipgloss.NewStyle().Faint(true)
)

// Row markers in the first column.
const (
	markPinned   = "^"
	markSelected = "*"
)

func renderConfigs(configs []apiclient.TableConfig) string {
	if len(configs) == 0 {
		return footerStyle.Render("No custom tables.")
	}

	rows := make([][]string, len(configs))
	for i, c := range configs {
		rows[i] = []string{strconv.Itoa(c.ID), c.Name, c.InternalTable, c.CreatedAt}
	}

	return newTable(func(int, int) lipgloss.Style { return cellStyle }).
		Headers("ID", "Name", "Internal table", "Created").
		Rows(rows...).
		String()
}

// renderPage prints rows with a marker column: "^" for pinned rows, which
// come first, and "*" for selected rows.
func renderPage(page *tableview.Page, state core.TableState) string {
	headers := append([]string{""}, page.Columns...)
	for i, col := range page.Columns {
		if state.Sort.Column == col {
			headers[i+1] = col + sortArrow(state.Sort.Direction)
		}
	}

	rows := make([][]string, len(page.Rows))
	for i, r := range page.Rows {
		cells := make([]string, 0, len(page.Columns)+1)
		cells = append(cells, rowMarker(r))
		for _, col := range page.Columns {
			cells = append(cells, r.Cell(col))
		}
		rows[i] = cells
	}

	t := newTable(func(row, _ int) lipgloss.Style {
		if row < 0 || row >= len(page.Rows) {
			return cellStyle
		}
		switch r := page.Rows[row]; {
		case r.Pinned:
			return pinnedStyle
		case r.Selected:
			return selectedStyle
		default:
			return cellStyle
		}
	}).Headers(headers...).Rows(rows...)

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(pageFooter(page, state)))
	return b.String()
}

func newTable(style func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return style(row, col)
		})
}

func rowMarker(r tableview.Row) string {
	var m string
	if r.Pinned {
		m += markPinned
	}
	if r.Selected {
		m += markSelected
	}
	return m
}

func sortArrow(d core.SortDirection) string {
	switch d {
	case core.SortAsc:
		return " ↑"
	case core.SortDesc:
		return " ↓"
	default:
		return ""
	}
}

func pageFooter(page *tableview.Page, state core.TableState) string {
	parts := []string{
		fmt.Sprintf("page %d of %d", page.Page, page.TotalPages),
		fmt.Sprintf("%d rows", page.Total),
	}
	if n := len(state.SelectedRows); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if n := len(state.PinnedRows); n > 0 {
		parts = append(parts, fmt.Sprintf("%d pinned", n))
	}
	if state.Filters.Active() {
		parts = append(parts, "filtered")
	}
	return strings.Join(parts, " · ")
}

// renderHTML prints the page as an HTML table with each cell escaped and the
// active search terms marked.
func renderHTML(page *tableview.Page, state core.TableState) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr><th></th>")
	for _, col := range page.Columns {
		fmt.Fprintf(&b, "<th>%s</th>", core.EscapeHTML(col))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")

	for _, r := range page.Rows {
		fmt.Fprintf(&b, `<tr data-row-id="%s"><td>%s</td>`, core.EscapeHTML(r.ID), rowMarker(r))
		for _, col := range page.Columns {
			fmt.Fprintf(&b, "<td>%s</td>", core.HighlightText(r.Cell(col), core.SearchTerms(state.Filters, col)))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}
