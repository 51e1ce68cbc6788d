// Package core holds the interaction state of a data table and the pure
// helpers used to render it.
//
// Nothing in this package performs I/O. It can be driven by the web UI, the
// CLI, or tests without modification.
//
// # Table State
//
// A [Store] owns one [TableState] for the lifetime of a table instance. All
// mutation goes through named operations so the invariants always hold once
// an operation returns:
//
//   - Page is at least 1 and PageSize is positive.
//   - Sort direction is empty, "asc" or "desc".
//   - Any change to sorting or filtering moves the cursor back to page 1.
//
// Sorting cycles per column:
//
//	store.SetSort("Status") // Status asc
//	store.SetSort("Status") // Status desc
//	store.SetSort("Status") // no sort
//	store.SetSort("Name")   // Name asc
//
// Consumers that need change notification register with [Store.Subscribe].
// Callbacks run synchronously after every mutating operation.
//
// # Highlighting
//
// [HighlightText] escapes a cell value and wraps every case-insensitive
// occurrence of each search term in <mark> tags. The output is safe to
// embed in HTML as-is.
//
// # Error Handling
//
// Technical errors from the API client are mapped to user-friendly messages
// using [MapError]. Each category has a code for support reference:
//
//   - API001-API005: Remote table service statuses
//   - NET001-NET003: Transport failures
//   - REQ001-REQ004: Invalid input from the browser or CLI
//   - RATE001: Per-client rate limit
package core
