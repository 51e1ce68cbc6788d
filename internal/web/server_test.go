package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/core"
)

// fakeTableService serves a fixed entity list and records calls.
type fakeTableService struct {
	mu         sync.Mutex
	entities   []apiclient.Entity
	configs    []apiclient.TableConfig
	fetchErr   error
	lastParams apiclient.FetchParams
	created    []apiclient.CreateTableRequest
}

func newFakeTableService() *fakeTableService {
	return &fakeTableService{
		entities: []apiclient.Entity{
			{RegistrationID: "A", LegalName: "Acme", Status: "active"},
			{RegistrationID: "B", LegalName: "Beta", Status: "inactive"},
			{RegistrationID: "HRB 1", LegalName: "Gamma", Status: "active"},
		},
		configs: []apiclient.TableConfig{{ID: 7, Name: "Shortlist", InternalTable: "ct_7"}},
	}
}

func (f *fakeTableService) FetchEntities(_ context.Context, p apiclient.FetchParams) (*apiclient.Page[apiclient.Entity], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = p
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &apiclient.Page[apiclient.Entity]{
		Results:  f.entities,
		Total:    len(f.entities),
		Page:     p.Page,
		PageSize: p.PageSize,
	}, nil
}

func (f *fakeTableService) FetchTable(_ context.Context, id int, p apiclient.FetchParams) (*apiclient.Page[apiclient.Record], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = p
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &apiclient.Page[apiclient.Record]{
		Results: []apiclient.Record{{"id": float64(1), "name": "one"}},
		Total:   1,
		Page:    p.Page,
	}, nil
}

func (f *fakeTableService) ListTableConfigs(context.Context) ([]apiclient.TableConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs, nil
}

func (f *fakeTableService) CreateTable(_ context.Context, req apiclient.CreateTableRequest) (*apiclient.CreateTableResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &apiclient.CreateTableResponse{ConfigID: 99, Name: req.Name, DebugInternalTable: "ct_99"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		API:     config.APIConfig{BaseURL: "http://api.test"},
		Table:   config.TableConfig{PageSize: 25, MaxPageSize: 100},
		Session: config.SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, CookieName: "dt_session"},
		Rate:    config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1000},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

type testEnv struct {
	t      *testing.T
	api    *fakeTableService
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	api := newFakeTableService()
	s := NewServer(ctx, testConfig(), api)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	return &testEnv{t: t, api: api, srv: srv, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) do(client *http.Client, method, path string, body io.Reader, headers map[string]string) (*http.Response, string) {
	e.t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(e.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(data)
}

func (e *testEnv) post(path string, form url.Values) *http.Response {
	e.t.Helper()
	resp, _ := e.do(e.client, http.MethodPost, path, strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	return resp
}

func (e *testEnv) state(client *http.Client, view string) StateResponse {
	e.t.Helper()
	resp, body := e.do(client, http.MethodGet, "/api/tables/"+view+"/state", nil, nil)
	require.Equal(e.t, http.StatusOK, resp.StatusCode, body)

	var st StateResponse
	require.NoError(e.t, json.Unmarshal([]byte(body), &st))
	return st
}

func TestSortCyclesThroughDirections(t *testing.T) {
	e := newTestEnv(t)
	form := url.Values{"column": {"Legal Name"}}

	resp := e.post("/tables/entities/sort", form)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/tables/entities", resp.Header.Get("Location"))

	st := e.state(e.client, "entities")
	assert.Equal(t, core.SortState{Column: "Legal Name", Direction: core.SortAsc}, st.Sort)

	e.post("/tables/entities/sort", form)
	assert.Equal(t, core.SortDesc, e.state(e.client, "entities").Sort.Direction)

	e.post("/tables/entities/sort", form)
	assert.Equal(t, core.SortState{}, e.state(e.client, "entities").Sort)
}

func TestSortRequiresColumn(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(e.client, http.MethodPost, "/tables/entities/sort", strings.NewReader(""),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded", "Accept": "application/json"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"code":"REQ003"`)
}

func TestSelectAllTogglesPage(t *testing.T) {
	e := newTestEnv(t)
	ids := url.Values{"ids": {"A", "B"}}

	e.post("/tables/entities/rows/select-all", ids)
	st := e.state(e.client, "entities")
	assert.Equal(t, 2, st.SelectedCount)
	assert.Equal(t, []string{"A", "B"}, st.SelectedRowIDs)

	e.post("/tables/entities/rows/select-all", ids)
	st = e.state(e.client, "entities")
	assert.Zero(t, st.SelectedCount)
	assert.Empty(t, st.SelectedRowIDs)
}

func TestRowIDsAreUnescaped(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/rows/HRB%201/select", nil)
	e.post("/tables/entities/rows/a%2Fb/pin", nil)

	st := e.state(e.client, "entities")
	assert.Equal(t, []string{"HRB 1"}, st.SelectedRowIDs)
	assert.Equal(t, []string{"a/b"}, st.PinnedRowIDs)
}

func TestCreateTableUsesSelection(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/rows/A/select", nil)
	e.post("/tables/entities/rows/B/select", nil)

	resp, body := e.do(e.client, http.MethodPost, "/api/tables",
		strings.NewReader(`{"view": "entities", "name": "Shortlist", "sharedWith": "team@example.com"}`),
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.JSONEq(t, `{"config_id": 99, "name": "Shortlist", "debug_internal_table": "ct_99"}`, body)

	require.Len(t, e.api.created, 1)
	assert.Equal(t, apiclient.CreateTableRequest{
		Name:         "Shortlist",
		SourceTable:  "entities",
		RowIDs:       []string{"A", "B"},
		DatapointIDs: []string{},
		Columns:      []apiclient.ColumnSpec{},
		SharedWith:   "team@example.com",
	}, e.api.created[0])

	assert.Zero(t, e.state(e.client, "entities").SelectedCount)
}

func TestCreateTableFromCustomView(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/7/rows/1/select", nil)
	resp := e.post("/api/tables", url.Values{
		"view":      {"7"},
		"name":      {"Subset"},
		"datapoint": {"revenue"},
		"column":    {"name:text", "score"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, e.api.created, 1)
	got := e.api.created[0]
	assert.Equal(t, "ct_7", got.SourceTable)
	assert.Equal(t, []string{"1"}, got.RowIDs)
	assert.Equal(t, []string{"revenue"}, got.DatapointIDs)
	assert.Equal(t, []apiclient.ColumnSpec{{Name: "name", Type: "text"}, {Name: "score", Type: "text"}}, got.Columns)
}

func TestCreateTableValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		select1  bool
		wantCode string
		status   int
	}{
		{name: "no selection", body: `{"view":"entities","name":"x"}`, wantCode: "REQ003", status: http.StatusBadRequest},
		{name: "no name", body: `{"view":"entities","name":"  "}`, select1: true, wantCode: "REQ004", status: http.StatusBadRequest},
		{name: "bad view", body: `{"view":"nope","name":"x"}`, wantCode: "REQ001", status: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantCode: "REQ003", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			if tt.select1 {
				e.post("/tables/entities/rows/A/select", nil)
			}

			resp, body := e.do(e.client, http.MethodPost, "/api/tables", strings.NewReader(tt.body),
				map[string]string{"Content-Type": "application/json"})

			assert.Equal(t, tt.status, resp.StatusCode)
			var er ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &er))
			assert.Equal(t, tt.wantCode, er.Code)
			assert.Empty(t, e.api.created)
		})
	}
}

func TestInvalidView(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(e.client, http.MethodGet, "/api/tables/nope/state", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"REQ001"`)
}

func TestHTMXMutationRendersPartial(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{"global": {"acme"}, "filter[Status]": {"active"}}
	resp, body := e.do(e.client, http.MethodPost, "/tables/entities/filters", strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded", "HX-Request": "true"})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `<div id="table-root">`)
	assert.Contains(t, body, "<mark>Acme</mark>")
	assert.NotContains(t, body, "<!doctype html>")

	assert.Equal(t, "acme", e.api.lastParams.Global)
	assert.Equal(t, map[string]string{"Status": "active"}, e.api.lastParams.Filters)
	assert.Equal(t, 1, e.api.lastParams.Page)
}

func TestTablePage(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(e.client, http.MethodGet, "/tables/entities", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "Registered entities")
	assert.Contains(t, body, "Gamma")
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestFetchFailureRendersMappedError(t *testing.T) {
	e := newTestEnv(t)
	e.api.fetchErr = &apiclient.StatusError{Op: "api request failed", StatusCode: 503, Status: "Service Unavailable"}

	resp, body := e.do(e.client, http.MethodGet, "/tables/entities", nil, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "The table service is unavailable")
	assert.Contains(t, body, "API005")
	assert.NotContains(t, body, "503 Service Unavailable")
}

func TestPagination(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/page", url.Values{"page": {"3"}})
	st := e.state(e.client, "entities")
	assert.Equal(t, 3, st.Page)

	e.post("/tables/entities/page", url.Values{"page_size": {"1000"}})
	st = e.state(e.client, "entities")
	assert.Equal(t, 100, st.PageSize)
	assert.Equal(t, 1, st.Page)

	resp := e.post("/tables/entities/page", url.Values{"page": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPageRejectsInvalidInputWithoutChanges(t *testing.T) {
	e := newTestEnv(t)

	resp := e.post("/tables/entities/page", url.Values{"page_size": {"50"}, "page": {"x"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	st := e.state(e.client, "entities")
	assert.Equal(t, 25, st.PageSize)
	assert.Equal(t, 1, st.Page)

	e.post("/tables/entities/page", url.Values{"page_size": {"50"}, "page": {"2"}})
	st = e.state(e.client, "entities")
	assert.Equal(t, 50, st.PageSize)
	assert.Equal(t, 2, st.Page)
}

func TestFilterWithInvalidUTF8StillRenders(t *testing.T) {
	e := newTestEnv(t)

	resp, _ := e.do(e.client, http.MethodPost, "/tables/entities/filters", strings.NewReader("global=%FF&filter%5BStatus%5D=act%FE"),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	st := e.state(e.client, "entities")
	assert.Equal(t, "\uFFFD", st.Filters.Global)
	assert.Equal(t, "act\uFFFD", st.Filters.ColumnFilters["Status"])

	for range 2 {
		resp, body := e.do(e.client, http.MethodGet, "/tables/entities", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "</table>")
		assert.Contains(t, body, "Gamma")
	}
}

func TestColumnPinning(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/columns/Legal%20Name/pin", url.Values{"side": {"right"}, "offset": {"120"}})
	st := e.state(e.client, "entities")
	assert.Equal(t, []core.PinnedColumn{{Name: "Legal Name", Side: core.PinRight, Offset: 120}}, st.PinnedColumns)

	resp, _ := e.do(e.client, http.MethodDelete, "/tables/entities/columns/Legal%20Name/pin", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, e.state(e.client, "entities").PinnedColumns)
}

func TestClearPinnedColumns(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/columns/Status/pin", nil)
	e.post("/tables/entities/columns/Address/pin", url.Values{"offset": {"80"}})
	require.Len(t, e.state(e.client, "entities").PinnedColumns, 2)

	resp := e.post("/tables/entities/column-pins/clear", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, e.state(e.client, "entities").PinnedColumns)
}

func TestSessionsAreIsolated(t *testing.T) {
	e := newTestEnv(t)
	other := newClient(t)

	e.post("/tables/entities/rows/A/select", nil)

	assert.Equal(t, 1, e.state(e.client, "entities").SelectedCount)
	assert.Zero(t, e.state(other, "entities").SelectedCount)
}

func TestViewsHaveSeparateState(t *testing.T) {
	e := newTestEnv(t)

	e.post("/tables/entities/rows/A/select", nil)

	assert.Equal(t, 1, e.state(e.client, "entities").SelectedCount)
	assert.Zero(t, e.state(e.client, "7").SelectedCount)
}

func TestAPIConfigs(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(e.client, http.MethodGet, "/api/configs", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":7,"user_id":0,"name":"Shortlist","internal_table":"ct_7","created_at":""}]`, body)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("1.2.3.4"))
	assert.False(t, rl.allow("1.2.3.4"))
	assert.True(t, rl.allow("5.6.7.8"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("1.2.3.4"))

	now = now.Add(3 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.visitors)
}

func TestSessionSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := newSessionRegistry(time.Hour, 25)
	reg.now = func() time.Time { return now }

	old := reg.get("")
	now = now.Add(45 * time.Minute)
	fresh := reg.get("")

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, reg.sweep())
	assert.Equal(t, 1, reg.len())

	assert.Same(t, fresh, reg.get(fresh.id))
	assert.NotEqual(t, old.id, reg.get(old.id).id)
}
