package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

// handleAPIConfigs returns the custom table configs as JSON.
func (s *Server) handleAPIConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.api.ListTableConfigs(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if configs == nil {
		configs = []apiclient.TableConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// StateResponse is the JSON view of a session's table state.
type StateResponse struct {
	core.TableState
	View           string   `json:"view"`
	SelectedRowIDs []string `json:"selectedRowIds"`
	PinnedRowIDs   []string `json:"pinnedRowIds"`
	SelectedCount  int      `json:"selectedCount"`
}

// handleAPIState returns the session's state for a view without fetching data.
func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	view := viewFromContext(r.Context())
	sess := sessionFromContext(r.Context())

	sess.mu.Lock()
	store := sess.store(view)
	resp := StateResponse{
		TableState:     store.Snapshot(),
		View:           view.String(),
		SelectedRowIDs: store.SelectedRowIDs(),
		PinnedRowIDs:   store.PinnedRowIDs(),
		SelectedCount:  store.SelectedCount(),
	}
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// CreateTableInput is the body of POST /api/tables. Form posts use the same
// field names; "datapoint" and "column" (name:type) may repeat.
type CreateTableInput struct {
	View        string                 `json:"view"`
	Name        string                 `json:"name"`
	SourceTable string                 `json:"src_table"`
	Datapoints  []string               `json:"datapoints"`
	Columns     []apiclient.ColumnSpec `json:"columns"`
	SharedWith  string                 `json:"sharedWith"`
}

func parseCreateInput(r *http.Request) (CreateTableInput, error) {
	var in CreateTableInput

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	in.View = r.PostForm.Get("view")
	in.Name = r.PostForm.Get("name")
	in.SourceTable = r.PostForm.Get("src_table")
	in.SharedWith = r.PostForm.Get("shared_with")
	in.Datapoints = r.PostForm["datapoint"]
	for _, raw := range r.PostForm["column"] {
		col, err := apiclient.ParseColumnSpec(raw)
		if err != nil {
			return in, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		in.Columns = append(in.Columns, col)
	}
	return in, nil
}

// handleAPICreateTable creates a custom table from the rows selected in the
// given view, then clears that selection.
func (s *Server) handleAPICreateTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := parseCreateInput(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		s.respondError(w, r, errNameRequired, http.StatusBadRequest)
		return
	}

	view, err := tableview.ParseView(in.View)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ctx = core.ContextWithView(ctx, view.String())
	r = r.WithContext(ctx)

	sess := sessionFromContext(ctx)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	store := sess.store(view)
	rows := store.SelectedRowIDs()
	if len(rows) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no rows selected", errInvalidRequest), http.StatusBadRequest)
		return
	}

	srcTable, err := s.sourceTable(r, view, in.SourceTable)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	req := apiclient.CreateTableRequest{
		Name:         in.Name,
		SourceTable:  srcTable,
		RowIDs:       rows,
		DatapointIDs: in.Datapoints,
		Columns:      in.Columns,
		SharedWith:   in.SharedWith,
	}
	if req.DatapointIDs == nil {
		req.DatapointIDs = []string{}
	}
	if req.Columns == nil {
		req.Columns = []apiclient.ColumnSpec{}
	}

	resp, err := s.api.CreateTable(ctx, req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	store.ClearSelection()

	logging.FromContext(ctx).Info("custom table created",
		"config_id", resp.ConfigID,
		"name", resp.Name,
		"rows", len(rows),
	)

	if isHTMX(r) {
		notice := fmt.Sprintf("Created table %q (id %d) from %d rows.", resp.Name, resp.ConfigID, len(rows))
		s.renderTable(w, r, view, store, notice)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// sourceTable resolves the src_table for a create request: an explicit value
// wins, the entities view maps to "entities", and a custom view uses its
// config's internal table.
func (s *Server) sourceTable(r *http.Request, view tableview.View, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if view.IsEntities() {
		return tableview.EntitiesView, nil
	}

	configs, err := s.api.ListTableConfigs(r.Context())
	if err != nil {
		return "", err
	}
	for _, c := range configs {
		if c.ID == view.ConfigID() {
			return c.InternalTable, nil
		}
	}
	return "", fmt.Errorf("%w: no table config %d", tableview.ErrInvalidView, view.ConfigID())
}
