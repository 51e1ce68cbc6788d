package apiclient

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// TableConfig describes a custom table owned by a user.
type TableConfig struct {
	ID            int    `json:"id"`
	UserID        int    `json:"user_id"`
	Name          string `json:"name"`
	InternalTable string `json:"internal_table"`
	CreatedAt     string `json:"created_at"`
}

// Page is one page of results from a paginated endpoint.
type Page[T any] struct {
	Results  []T      `json:"results"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Columns  []string `json:"columns,omitempty"`
}

// Record is a row of a custom table keyed by column name.
type Record map[string]any

// Entity field names as they appear on the wire.
const (
	FieldRegistrationID = "Registration ID"
	FieldLegalName      = "Legal Name"
	FieldStatus         = "Status"
	FieldAddress        = "Address"
	FieldLastScan       = "Last Scan"
)

// EntityFields lists the fixed entity columns in display order.
var EntityFields = []string{
	FieldRegistrationID,
	FieldLegalName,
	FieldStatus,
	FieldAddress,
	FieldLastScan,
}

// Entity is a registered business. Columns beyond the fixed fields are kept in Extra.
type Entity struct {
	RegistrationID string
	LegalName      string
	Status         string
	Address        string
	LastScan       string
	Extra          map[string]any
}

// Record flattens the entity into a column-keyed row.
func (e Entity) Record() Record {
	r := make(Record, len(EntityFields)+len(e.Extra))
	maps.Copy(r, e.Extra)
	r[FieldRegistrationID] = e.RegistrationID
	r[FieldLegalName] = e.LegalName
	r[FieldStatus] = e.Status
	r[FieldAddress] = e.Address
	r[FieldLastScan] = e.LastScan
	return r
}

// MarshalJSON writes the fixed fields and Extra as one flat object.
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(e.Record()))
}

// UnmarshalJSON reads a flat object, moving unknown keys into Extra.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entity{}
	fixed := map[string]*string{
		FieldRegistrationID: &e.RegistrationID,
		FieldLegalName:      &e.LegalName,
		FieldStatus:         &e.Status,
		FieldAddress:        &e.Address,
		FieldLastScan:       &e.LastScan,
	}

	for key, val := range raw {
		dst, ok := fixed[key]
		if !ok {
			if e.Extra == nil {
				e.Extra = make(map[string]any)
			}
			e.Extra[key] = val
			continue
		}
		switch v := val.(type) {
		case nil:
			*dst = ""
		case string:
			*dst = v
		default:
			// Registration ids occasionally arrive as numbers.
			*dst = fmt.Sprint(v)
		}
	}
	return nil
}

// FetchParams selects a page. Zero values are omitted from the request.
type FetchParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string // "asc" or "desc"
	Global   string
	Filters  map[string]string // column -> value; empty values are skipped
}

// ColumnSpec declares a column of a table being created.
type ColumnSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateTableRequest builds a custom table from rows of a source table.
type CreateTableRequest struct {
	Name         string       `json:"name"`
	SourceTable  string       `json:"src_table"`
	RowIDs       []string     `json:"rows"`
	DatapointIDs []string     `json:"datapoints"`
	Columns      []ColumnSpec `json:"columns"`
	SharedWith   string       `json:"sharedWith"`
}

// CreateTableResponse identifies the created table.
type CreateTableResponse struct {
	ConfigID           int    `json:"config_id"`
	Name               string `json:"name"`
	DebugInternalTable string `json:"debug_internal_table"`
}

// ParseColumnSpec parses "name:type". The type defaults to "text".
func ParseColumnSpec(raw string) (ColumnSpec, error) {
	name, typ, _ := strings.Cut(raw, ":")
	name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
	if name == "" {
		return ColumnSpec{}, fmt.Errorf("invalid column %q: want name:type", raw)
	}
	if typ == "" {
		typ = "text"
	}
	return ColumnSpec{Name: name, Type: typ}, nil
}
