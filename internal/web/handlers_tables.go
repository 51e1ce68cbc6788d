package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
	"github.com/JonMunkholm/datatable/internal/tableview"
	"github.com/JonMunkholm/datatable/internal/web/templates"
)

// handleConfigList renders the index of custom tables.
func (s *Server) handleConfigList(w http.ResponseWriter, r *http.Request) {
	configs, err := s.api.ListTableConfigs(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ConfigList(configs).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render config list", "error", err)
	}
}

// handleTable renders the table for the session's current state.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	view := viewFromContext(r.Context())
	sess := sessionFromContext(r.Context())

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.renderTable(w, r, view, sess.store(view), "")
}

// renderTable loads the current page for store and writes the table as a
// full page, or as the swappable partial for HTMX requests. Callers hold the
// session lock.
func (s *Server) renderTable(w http.ResponseWriter, r *http.Request, view tableview.View, store *core.Store, notice string) {
	page, err := s.loader.Load(r.Context(), view, store)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	params := templates.TableParams{
		Title:  viewTitle(view),
		Page:   page,
		State:  store.Snapshot(),
		Notice: notice,
	}

	var c templ.Component
	if isHTMX(r) {
		c = templates.TablePartial(params)
	} else {
		c = templates.TableView(params)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table", "error", err)
	}
}

func viewTitle(view tableview.View) string {
	if view.IsEntities() {
		return "Registered entities"
	}
	return "Custom table " + view.String()
}

// mutation changes a store from a parsed request.
type mutation func(store *core.Store, r *http.Request) error

// mutate runs m against the session's store for the request's view, then
// re-renders the table for HTMX or redirects back to it.
func (s *Server) mutate(m mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidRequest, err), http.StatusBadRequest)
			return
		}

		view := viewFromContext(r.Context())
		sess := sessionFromContext(r.Context())

		sess.mu.Lock()
		defer sess.mu.Unlock()

		store := sess.store(view)
		if err := m(store, r); err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}

		logging.FromContext(r.Context()).Debug("table state changed", "path", r.URL.Path)

		if isHTMX(r) {
			s.renderTable(w, r, view, store, "")
			return
		}
		http.Redirect(w, r, "/tables/"+view.String(), http.StatusSeeOther)
	}
}

/* ----------------------------------------
	SORT
---------------------------------------- */

func applySort(store *core.Store, r *http.Request) error {
	column := formValue(r.PostForm.Get("column"))
	if column == "" {
		return fmt.Errorf("%w: column is required", errInvalidRequest)
	}
	store.SetSort(column)
	return nil
}

func applyResetSort(store *core.Store, _ *http.Request) error {
	store.ResetSort()
	return nil
}

/* ----------------------------------------
	FILTERS
---------------------------------------- */

// applyFilters sets the global filter when the form carries "global" and
// each column filter sent as "filter[<column>]". Empty values clear.
func applyFilters(store *core.Store, r *http.Request) error {
	if _, ok := r.PostForm["global"]; ok {
		store.SetGlobalFilter(formValue(r.PostForm.Get("global")))
	}

	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		column := formValue(key[len("filter[") : len(key)-1])
		if column == "" || len(values) == 0 {
			continue
		}
		store.SetColumnFilter(column, formValue(values[0]))
	}
	return nil
}

// formValue trims v and replaces invalid UTF-8.
func formValue(v string) string {
	return strings.TrimSpace(core.ValidUTF8(v))
}

func applyResetFilters(store *core.Store, _ *http.Request) error {
	store.ResetFilters()
	return nil
}

/* ----------------------------------------
	PAGINATION
---------------------------------------- */

// applyPage validates "page_size" and "page" before changing anything, then
// applies the size first, which returns to page 1, and the page second.
func (s *Server) applyPage(store *core.Store, r *http.Request) error {
	size, page, setPage := 0, 0, false

	if raw := r.PostForm.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: page size %q", errInvalidPage, raw)
		}
		size = min(n, s.cfg.Table.MaxPageSize)
	}

	if raw := r.PostForm.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %q", errInvalidPage, raw)
		}
		page, setPage = n, true
	}

	if size > 0 {
		store.SetPageSize(size)
	}
	if setPage {
		store.SetPage(page)
	}
	return nil
}

/* ----------------------------------------
	SELECTION
---------------------------------------- */

func applySelectRow(store *core.Store, r *http.Request) error {
	store.ToggleRowSelection(urlParam(r, "rowID"))
	return nil
}

func applySelectAll(store *core.Store, r *http.Request) error {
	store.ToggleAllRows(r.PostForm["ids"])
	return nil
}

func applyClearSelection(store *core.Store, _ *http.Request) error {
	store.ClearSelection()
	return nil
}

/* ----------------------------------------
	PINNING
---------------------------------------- */

func applyPinRow(store *core.Store, r *http.Request) error {
	store.ToggleRowPin(urlParam(r, "rowID"))
	return nil
}

func applyClearPinnedRows(store *core.Store, _ *http.Request) error {
	store.ClearPinnedRows()
	return nil
}

func applyPinColumn(store *core.Store, r *http.Request) error {
	offset := 0
	if raw := r.PostForm.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: offset %q", errInvalidRequest, raw)
		}
		offset = n
	}
	store.PinColumn(urlParam(r, "column"), core.ParsePinSide(r.PostForm.Get("side")), offset)
	return nil
}

func applyUnpinColumn(store *core.Store, r *http.Request) error {
	store.UnpinColumn(urlParam(r, "column"))
	return nil
}

func applyClearPinnedColumns(store *core.Store, _ *http.Request) error {
	store.ClearPinnedColumns()
	return nil
}
