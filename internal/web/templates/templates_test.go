package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

func samplePage() *tableview.Page {
	return &tableview.Page{
		View:    tableview.Entities(),
		Columns: []string{"Legal Name", "Status"},
		Rows: []tableview.Row{
			{ID: "HRB 1", Cells: map[string]string{"Legal Name": "Acme <GmbH>", "Status": "active"}, Pinned: true},
			{ID: "HRB 2", Cells: map[string]string{"Legal Name": "Beta AG", "Status": "inactive"}, Selected: true},
		},
		Total:      60,
		Page:       2,
		PageSize:   25,
		TotalPages: 3,
	}
}

func renderString(t *testing.T, fn func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, fn(&buf))
	return buf.String()
}

func TestTablePartial(t *testing.T) {
	s := core.NewStore()
	s.SetGlobalFilter("acme")
	s.SetColumnFilter("Status", "act")
	s.SetSort("Legal Name")
	s.PinColumn("Legal Name", core.PinLeft, 40)
	s.ToggleRowSelection("HRB 2")
	s.ToggleRowPin("HRB 1")

	p := TableParams{Title: "Registered entities", Page: samplePage(), State: s.Snapshot(), Notice: "Created"}

	out := renderString(t, func(b *bytes.Buffer) error {
		return TablePartial(p).Render(context.Background(), b)
	})

	assert.Contains(t, out, `<div id="table-root">`)
	assert.Contains(t, out, "<mark>Acme</mark> &lt;GmbH&gt;")
	assert.Contains(t, out, "<mark>act</mark>ive")
	assert.Contains(t, out, "in<mark>act</mark>ive")
	assert.Contains(t, out, `class="sticky" style="left:40px"`)
	assert.Contains(t, out, "Legal Name ▲")
	assert.Contains(t, out, "1 selected")
	assert.Contains(t, out, `action="/tables/entities/rows/HRB%201/pin"`)
	assert.Contains(t, out, `name="filter[Status]" value="act"`)
	assert.Contains(t, out, `name="ids" value="HRB 2"`)
	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, "Previous")
	assert.Contains(t, out, "Next")
	assert.Contains(t, out, `<div class="notice">Created</div>`)
	assert.Contains(t, out, `<tr data-row-id="HRB 1" class="pinned">`)
	assert.Contains(t, out, "Unpin columns")
	assert.NotContains(t, out, "<html")
}

func TestTableView_WrapsLayout(t *testing.T) {
	p := TableParams{Title: "T <1>", Page: samplePage(), State: core.NewStore().Snapshot()}

	out := renderString(t, func(b *bytes.Buffer) error {
		return TableView(p).Render(context.Background(), b)
	})

	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, "<title>T &lt;1&gt;</title>")
	assert.Contains(t, out, `<div id="table-root">`)
	assert.NotContains(t, out, "<mark>")
	assert.NotContains(t, out, "selected</span>")
}

func TestTablePartial_ErrorAndEmpty(t *testing.T) {
	s := core.NewStore()
	s.SetError("api request failed: 502 Bad Gateway")
	page := &tableview.Page{View: tableview.Custom(4), Columns: []string{"a"}, Page: 1, TotalPages: 1}

	out := renderString(t, func(b *bytes.Buffer) error {
		return TablePartial(TableParams{Title: "x", Page: page, State: s.Snapshot()}).Render(context.Background(), b)
	})

	assert.Contains(t, out, "api request failed: 502 Bad Gateway")
	assert.Contains(t, out, "No rows match.")
	assert.Contains(t, out, `action="/tables/4/filters"`)
	assert.NotContains(t, out, "Previous")
}

func TestConfigList(t *testing.T) {
	out := renderString(t, func(b *bytes.Buffer) error {
		return ConfigList([]apiclient.TableConfig{{ID: 3, Name: "Q3 <audit>", InternalTable: "ct_3"}}).
			Render(context.Background(), b)
	})

	assert.Contains(t, out, `href="/tables/entities"`)
	assert.Contains(t, out, `href="/tables/3"`)
	assert.Contains(t, out, "Q3 &lt;audit&gt;")
}

func TestErrorAlert(t *testing.T) {
	out := renderString(t, func(b *bytes.Buffer) error {
		return ErrorAlert("Bad <thing>", "Retry", "API005").Render(context.Background(), b)
	})

	assert.Equal(t,
		`<div class="alert" role="alert"><strong>Bad &lt;thing&gt;</strong><span>Retry</span><span class="muted">(Code: API005)</span></div>`,
		out)
}

func TestTablePartial_EscapesDynamicValues(t *testing.T) {
	page := &tableview.Page{
		View:    tableview.Entities(),
		Columns: []string{`x"><script>alert(1)</script>`},
		Rows: []tableview.Row{
			{ID: `r"1`, Cells: map[string]string{`x"><script>alert(1)</script>`: "<img src=x>"}},
		},
		Page:       1,
		PageSize:   25,
		TotalPages: 1,
	}
	s := core.NewStore()
	s.SetGlobalFilter(`"><b>`)

	out := renderString(t, func(b *bytes.Buffer) error {
		return TablePartial(TableParams{Title: "<i>t</i>", Page: page, State: s.Snapshot()}).Render(context.Background(), b)
	})

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<i>t</i>")
	assert.NotContains(t, out, `"><b>`)
	assert.Contains(t, out, `data-row-id="r&#34;1"`)
	assert.Contains(t, out, "&lt;img src=x&gt;")
}
