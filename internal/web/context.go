package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

type viewCtxKey struct{}

// withView parses the {view} URL parameter and attaches it to the request.
func (s *Server) withView(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view, err := tableview.ParseView(urlParam(r, "view"))
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}

		ctx := context.WithValue(r.Context(), viewCtxKey{}, view)
		ctx = core.ContextWithView(ctx, view.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// viewFromContext returns the view attached by withView.
func viewFromContext(ctx context.Context) tableview.View {
	v, _ := ctx.Value(viewCtxKey{}).(tableview.View)
	return v
}

// urlParam returns a decoded route parameter. chi matches against RawPath
// when the path carries escapes such as %2F, leaving the value encoded.
func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
