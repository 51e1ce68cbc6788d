package core

import "context"

type contextKey string

const (
	ctxKeySessionID contextKey = "table_session"
	ctxKeyView      contextKey = "table_view"
)

// ContextWithSessionID tags ctx with the browser session that owns the table state.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// ContextWithView tags ctx with the table view being operated on.
func ContextWithView(ctx context.Context, view string) context.Context {
	return context.WithValue(ctx, ctxKeyView, view)
}

// SessionIDFromContext extracts the session id from context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}

// ViewFromContext extracts the table view from context.
func ViewFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyView).(string); ok {
		return v
	}
	return ""
}
