// Package core provides the table state and rendering helpers.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Table Service Errors (API001-API099)
//
// Non-2xx responses from the remote table service. The API client renders
// them as "<operation>: <code> <status text>", so patterns match on ": <code> ".
//
//	API001 - Not found: The table does not exist on the table service
//	         Action: Pick a table from the list and try again
//	         Patterns: ": 404 "
//
//	API002 - Access denied: You do not have access to this table
//	         Action: Ask the table owner to share it with you
//	         Patterns: ": 401 ", ": 403 "
//
//	API003 - Throttled: The table service is receiving too many requests
//	         Action: Please wait a moment before trying again
//	         Patterns: ": 429 "
//
//	API004 - Rejected: The table service rejected the request
//	         Action: Check the sort column and filters
//	         Patterns: ": 400 ", ": 422 "
//
//	API005 - Unavailable: The table service is unavailable
//	         Action: Please try again in a few moments
//	         Patterns: ": 500 ", ": 502 ", ": 503 ", ": 504 "
//
// # Network Errors (NET001-NET099)
//
//	NET001 - Unreachable: Unable to reach the table service
//	         Patterns: "connection refused", "no such host"
//
//	NET002 - Timeout: The table service did not answer in time
//	         Patterns: "context deadline exceeded", "timeout"
//
//	NET003 - Cancelled: The request was cancelled
//	         Patterns: "context canceled"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Unknown view: "invalid view"
//	REQ002 - Bad page: "invalid page"
//	REQ003 - Bad body: "invalid request body"
//	REQ004 - Missing name: "table name is required"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones. HTTP status patterns come before the
// network patterns so "504 Gateway Timeout" maps to API005, not NET002.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgNotFound = UserMessage{
		Message: "The table does not exist on the table service",
		Action:  "Pick a table from the list and try again",
		Code:    "API001",
	}
	msgDenied = UserMessage{
		Message: "You do not have access to this table",
		Action:  "Ask the table owner to share it with you",
		Code:    "API002",
	}
	msgThrottled = UserMessage{
		Message: "The table service is receiving too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "API003",
	}
	msgRejected = UserMessage{
		Message: "The table service rejected the request",
		Action:  "Check the sort column and filters",
		Code:    "API004",
	}
	msgUnavailable = UserMessage{
		Message: "The table service is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "API005",
	}
	msgUnreachable = UserMessage{
		Message: "Unable to reach the table service",
		Action:  "Check your connection and the API_BASE_URL setting",
		Code:    "NET001",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Table service statuses (API001-API005)
	// =========================================================================
	{pattern: ": 404 ", msg: msgNotFound},
	{pattern: ": 401 ", msg: msgDenied},
	{pattern: ": 403 ", msg: msgDenied},
	{pattern: ": 429 ", msg: msgThrottled},
	{pattern: ": 400 ", msg: msgRejected},
	{pattern: ": 422 ", msg: msgRejected},
	{pattern: ": 500 ", msg: msgUnavailable},
	{pattern: ": 502 ", msg: msgUnavailable},
	{pattern: ": 503 ", msg: msgUnavailable},
	{pattern: ": 504 ", msg: msgUnavailable},

	// =========================================================================
	// Transport (NET001-NET003)
	// =========================================================================
	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "no such host", msg: msgUnreachable},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The table service did not answer in time",
			Action:  "Narrow the filters or try again later",
			Code:    "NET002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The table service did not answer in time",
			Action:  "Narrow the filters or try again later",
			Code:    "NET002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "NET003",
		},
	},

	// =========================================================================
	// Request validation (REQ001-REQ004)
	// =========================================================================
	{
		pattern: "invalid view",
		msg: UserMessage{
			Message: "This table view does not exist",
			Action:  "Open a table from the list",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid page",
		msg: UserMessage{
			Message: "The page number or page size is not valid",
			Action:  "Use a positive whole number",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "table name is required",
		msg: UserMessage{
			Message: "A name is required to create a table",
			Action:  "Enter a name for the new table",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Rate limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
