// Package tableview binds a core.Store to the table service: it turns state
// into fetch parameters, runs the fetch, and shapes the response into rows
// ready for rendering.
package tableview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EntitiesView is the view key for the registered-entities table.
const EntitiesView = "entities"

// ErrInvalidView is returned by ParseView for unknown view keys.
var ErrInvalidView = errors.New("invalid view")

// View identifies a table: the entities table or a custom table by config id.
type View struct {
	configID int
}

// Entities returns the entities view.
func Entities() View {
	return View{}
}

// Custom returns the view of the custom table with the given config id.
func Custom(configID int) View {
	return View{configID: configID}
}

// ParseView parses "entities" or a positive decimal config id.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, EntitiesView) {
		return Entities(), nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return View{}, fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
	return Custom(id), nil
}

// IsEntities reports whether v is the entities view.
func (v View) IsEntities() bool {
	return v.configID == 0
}

// ConfigID returns the custom table config id, or 0 for the entities view.
func (v View) ConfigID() int {
	return v.configID
}

// String returns the view key as used in URLs.
func (v View) String() string {
	if v.IsEntities() {
		return EntitiesView
	}
	return strconv.Itoa(v.configID)
}
