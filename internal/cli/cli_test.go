package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

type fakeClient struct {
	baseURL    string
	timeout    time.Duration
	params     apiclient.FetchParams
	configID   int
	created    *apiclient.CreateTableRequest
	entities   []apiclient.Entity
	records    []apiclient.Record
	configs    []apiclient.TableConfig
	fetchError error
}

func (f *fakeClient) FetchEntities(_ context.Context, p apiclient.FetchParams) (*apiclient.Page[apiclient.Entity], error) {
	f.params = p
	if f.fetchError != nil {
		return nil, f.fetchError
	}
	return &apiclient.Page[apiclient.Entity]{Results: f.entities, Total: len(f.entities), Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeClient) FetchTable(_ context.Context, id int, p apiclient.FetchParams) (*apiclient.Page[apiclient.Record], error) {
	f.params = p
	f.configID = id
	return &apiclient.Page[apiclient.Record]{Results: f.records, Total: len(f.records), Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeClient) ListTableConfigs(context.Context) ([]apiclient.TableConfig, error) {
	return f.configs, nil
}

func (f *fakeClient) CreateTable(_ context.Context, req apiclient.CreateTableRequest) (*apiclient.CreateTableResponse, error) {
	f.created = &req
	return &apiclient.CreateTableResponse{ConfigID: 5, Name: req.Name, DebugInternalTable: "ct_5"}, nil
}

// executeCommand runs tablectl with args against fc and returns stdout.
func executeCommand(t *testing.T, fc *fakeClient, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand(func(baseURL string, timeout time.Duration) Client {
		fc.baseURL = baseURL
		fc.timeout = timeout
		return fc
	})

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleEntities() []apiclient.Entity {
	return []apiclient.Entity{
		{RegistrationID: "A", LegalName: "Acme <Ltd>", Status: "active"},
		{RegistrationID: "B", LegalName: "Beta", Status: "inactive"},
		{RegistrationID: "C", LegalName: "Gamma", Status: "active"},
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(DefaultClientFactory)
	assert.Equal(t, "tablectl", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"configs", "fetch", "create", "highlight"} {
		assert.Contains(t, names, want)
	}
}

func TestFetch_RepeatedSortCycles(t *testing.T) {
	fc := &fakeClient{entities: sampleEntities()}

	_, err := executeCommand(t, fc, "fetch", "entities", "--sort", "Legal Name", "--sort", "Legal Name")
	require.NoError(t, err)
	assert.Equal(t, "Legal Name", fc.params.SortBy)
	assert.Equal(t, "desc", fc.params.SortDir)

	_, err = executeCommand(t, fc, "fetch", "entities", "--sort", "Status", "--sort", "Status", "--sort", "Status")
	require.NoError(t, err)
	assert.Empty(t, fc.params.SortBy)
	assert.Empty(t, fc.params.SortDir)
}

func TestFetch_FiltersAndPaging(t *testing.T) {
	fc := &fakeClient{}

	_, err := executeCommand(t, fc, "--api-url", "http://api.test", "--api-timeout", "3s",
		"fetch", "12", "--sort", "name", "--page", "3", "--page-size", "10",
		"--global", "acme", "--filter", "Status=active", "--filter", "City=")
	require.NoError(t, err)

	assert.Equal(t, "http://api.test", fc.baseURL)
	assert.Equal(t, 3*time.Second, fc.timeout)
	assert.Equal(t, 12, fc.configID)
	assert.Equal(t, apiclient.FetchParams{
		Page:     3,
		PageSize: 10,
		SortBy:   "name",
		SortDir:  "asc",
		Global:   "acme",
		Filters:  map[string]string{"Status": "active"},
	}, fc.params)
}

func TestFetch_MarksSelectedAndPinned(t *testing.T) {
	fc := &fakeClient{entities: sampleEntities()}

	out, err := executeCommand(t, fc, "fetch", "entities", "--select", "B", "--pin", "C")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	var gamma, beta, acme int
	for i, l := range lines {
		switch {
		case strings.Contains(l, "Gamma"):
			gamma = i
			assert.Contains(t, l, markPinned)
		case strings.Contains(l, "Beta"):
			beta = i
			assert.Contains(t, l, markSelected)
		case strings.Contains(l, "Acme"):
			acme = i
		}
	}
	assert.Less(t, gamma, acme, "pinned row first")
	assert.Less(t, acme, beta)
	assert.Contains(t, out, "1 selected")
	assert.Contains(t, out, "1 pinned")
	assert.NotContains(t, out, "<mark>")
}

func TestFetch_HTMLHighlights(t *testing.T) {
	fc := &fakeClient{entities: sampleEntities()}

	out, err := executeCommand(t, fc, "fetch", "entities", "--html", "--global", "acme")
	require.NoError(t, err)

	assert.Contains(t, out, "<td><mark>Acme</mark> &lt;Ltd&gt;</td>")
	assert.Contains(t, out, `<tr data-row-id="B">`)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		fetch   error
		wantErr string
	}{
		{name: "bad view", args: []string{"fetch", "nope"}, wantErr: "invalid view"},
		{name: "bad filter", args: []string{"fetch", "entities", "--filter", "Status"}, wantErr: "invalid filter"},
		{name: "bad page size", args: []string{"fetch", "entities", "--page-size", "0"}, wantErr: "invalid page size"},
		{
			name:    "service error",
			args:    []string{"fetch", "entities"},
			fetch:   &apiclient.StatusError{Op: "api request failed", StatusCode: 500, Status: "Internal Server Error"},
			wantErr: "fetch entities: api request failed: 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, &fakeClient{fetchError: tt.fetch}, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreate(t *testing.T) {
	fc := &fakeClient{}

	out, err := executeCommand(t, fc, "create", "--name", "Shortlist",
		"--row", "HRB 1", "--row", "HRB 2", "--column", "Legal Name:text", "--shared-with", "ops")
	require.NoError(t, err)

	require.NotNil(t, fc.created)
	assert.Equal(t, apiclient.CreateTableRequest{
		Name:         "Shortlist",
		SourceTable:  "entities",
		RowIDs:       []string{"HRB 1", "HRB 2"},
		DatapointIDs: []string{},
		Columns:      []apiclient.ColumnSpec{{Name: "Legal Name", Type: "text"}},
		SharedWith:   "ops",
	}, *fc.created)
	assert.Contains(t, out, `Created table "Shortlist" (config 5, internal ct_5)`)
}

func TestCreate_RequiresRows(t *testing.T) {
	fc := &fakeClient{}

	_, err := executeCommand(t, fc, "create", "--name", "Empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--row")
	assert.Nil(t, fc.created)
}

func TestConfigs(t *testing.T) {
	fc := &fakeClient{configs: []apiclient.TableConfig{{ID: 7, Name: "Q3 audit", InternalTable: "ct_7"}}}

	out, err := executeCommand(t, fc, "configs")
	require.NoError(t, err)
	assert.Contains(t, out, "Q3 audit")
	assert.Contains(t, out, "ct_7")

	out, err = executeCommand(t, &fakeClient{}, "configs")
	require.NoError(t, err)
	assert.Contains(t, out, "No custom tables.")
}

func TestHighlight(t *testing.T) {
	out, err := executeCommand(t, &fakeClient{}, "highlight", "Hello World", "world")
	require.NoError(t, err)
	assert.Equal(t, "Hello <mark>World</mark>\n", out)
}

func TestHighlight_RequiresText(t *testing.T) {
	_, err := executeCommand(t, &fakeClient{}, "highlight")
	assert.Error(t, err)
}

func TestRowMarker(t *testing.T) {
	assert.Equal(t, "", rowMarker(tableview.Row{}))
	assert.Equal(t, "^", rowMarker(tableview.Row{Pinned: true}))
	assert.Equal(t, "*", rowMarker(tableview.Row{Selected: true}))
	assert.Equal(t, "^*", rowMarker(tableview.Row{Pinned: true, Selected: true}))
}

func TestFetch_LogsStateChanges(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	fc := &fakeClient{entities: sampleEntities()}
	root := NewRootCommand(func(string, time.Duration) Client { return fc })

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--log-level", "debug", "fetch", "entities", "--sort", "Status", "--select", "A"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	logs := errOut.String()
	assert.Contains(t, logs, "op=set_sort")
	assert.Contains(t, logs, "op=toggle_row_selection")
}
