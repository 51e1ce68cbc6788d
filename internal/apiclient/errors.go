package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Operation prefixes used in StatusError messages.
const (
	opRequest = "api request failed"
	opCreate  = "failed to create custom table"
)

// StatusError is returned when the table service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string // status text, e.g. "Not Found"
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Status)
}

// newStatusError keeps the server's reason phrase from resp.Status and falls
// back to the standard text when the server sent none.
func newStatusError(op string, resp *http.Response) *StatusError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Status: text}
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
