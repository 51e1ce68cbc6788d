package tableview

import (
	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/core"
)

// ParamsFromState maps a table state onto the service's fetch parameters.
func ParamsFromState(st core.TableState) apiclient.FetchParams {
	p := apiclient.FetchParams{
		Page:     st.Page,
		PageSize: st.PageSize,
		Global:   st.Filters.Global,
	}

	if st.Sort.Active() {
		p.SortBy = st.Sort.Column
		p.SortDir = string(st.Sort.Direction)
	}

	for col, val := range st.Filters.ColumnFilters {
		if val == "" {
			continue
		}
		if p.Filters == nil {
			p.Filters = make(map[string]string, len(st.Filters.ColumnFilters))
		}
		p.Filters[col] = val
	}
	return p
}
