package tableview

import (
	"context"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/logging"
)

// Fetcher is the subset of the table service a Loader needs.
// *apiclient.Client satisfies this interface.
type Fetcher interface {
	FetchEntities(ctx context.Context, params apiclient.FetchParams) (*apiclient.Page[apiclient.Entity], error)
	FetchTable(ctx context.Context, configID int, params apiclient.FetchParams) (*apiclient.Page[apiclient.Record], error)
}

// Loader fetches pages for a store's current state.
type Loader struct {
	api Fetcher
}

// NewLoader creates a Loader backed by api.
func NewLoader(api Fetcher) *Loader {
	return &Loader{api: api}
}

// Load fetches the page described by store's state. The store's loading flag
// is set for the duration of the fetch; a failure is recorded with SetError
// and returned unchanged.
func (l *Loader) Load(ctx context.Context, view View, store *core.Store) (*Page, error) {
	store.SetLoading(true)
	store.ClearError()

	st := store.Snapshot()
	params := ParamsFromState(st)

	page, err := l.fetch(ctx, view, params, st)
	store.SetLoading(false)
	if err != nil {
		store.SetError(err.Error())
		logging.WithFields(ctx, "table", view.String(), "page", params.Page, "error", err).
			Warn("table fetch failed")
		return nil, err
	}
	return page, nil
}

func (l *Loader) fetch(ctx context.Context, view View, params apiclient.FetchParams, st core.TableState) (*Page, error) {
	if view.IsEntities() {
		resp, err := l.api.FetchEntities(ctx, params)
		if err != nil {
			return nil, err
		}
		return entityPage(view, resp, st), nil
	}

	resp, err := l.api.FetchTable(ctx, view.ConfigID(), params)
	if err != nil {
		return nil, err
	}
	return recordPage(view, resp, st), nil
}
