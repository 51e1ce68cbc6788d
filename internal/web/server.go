// Package web serves the table UI and its JSON API. Each browser session
// owns one core.Store per table view; handlers mutate the store, reload the
// page from the table service, and render HTML or JSON.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datatable/internal/apiclient"
	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/tableview"
	mw "github.com/JonMunkholm/datatable/internal/web/middleware"
)

// TableService is the remote table API used by the server.
// *apiclient.Client satisfies this interface.
type TableService interface {
	tableview.Fetcher
	ListTableConfigs(ctx context.Context) ([]apiclient.TableConfig, error)
	CreateTable(ctx context.Context, req apiclient.CreateTableRequest) (*apiclient.CreateTableResponse, error)
}

// Server is the HTTP server for the table UI.
type Server struct {
	cfg      *config.Config
	api      TableService
	loader   *tableview.Loader
	registry *sessionRegistry
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server. Background session sweeping and rate limiter
// cleanup run until ctx is cancelled.
func NewServer(ctx context.Context, cfg *config.Config, api TableService) *Server {
	s := &Server{
		cfg:      cfg,
		api:      api,
		loader:   tableview.NewLoader(api),
		registry: newSessionRegistry(cfg.Session.TTL, cfg.Table.PageSize),
		router:   chi.NewRouter(),
	}
	go s.registry.run(ctx, cfg.Session.SweepInterval)

	s.setupMiddleware(ctx)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		go limiter.run(ctx)
		s.router.Use(s.rateLimit(limiter))
	}

	s.router.Use(s.sessions)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleConfigList)

	s.router.Route("/tables/{view}", func(r chi.Router) {
		r.Use(s.withView)

		r.Get("/", s.handleTable)

		// Sorting
		r.Post("/sort", s.mutate(applySort))
		r.Post("/sort/reset", s.mutate(applyResetSort))

		// Filtering
		r.Post("/filters", s.mutate(applyFilters))
		r.Post("/filters/reset", s.mutate(applyResetFilters))

		// Pagination
		r.Post("/page", s.mutate(s.applyPage))

		// Selection
		r.Post("/rows/select-all", s.mutate(applySelectAll))
		r.Post("/rows/{rowID}/select", s.mutate(applySelectRow))
		r.Post("/selection/clear", s.mutate(applyClearSelection))

		// Pinning
		r.Post("/rows/{rowID}/pin", s.mutate(applyPinRow))
		r.Post("/pins/clear", s.mutate(applyClearPinnedRows))
		r.Post("/columns/{column}/pin", s.mutate(applyPinColumn))
		r.Delete("/columns/{column}/pin", s.mutate(applyUnpinColumn))
		r.Post("/column-pins/clear", s.mutate(applyClearPinnedColumns))
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/configs", s.handleAPIConfigs)
		r.With(s.withView).Get("/tables/{view}/state", s.handleAPIState)
		r.Post("/tables", s.handleAPICreateTable)
	})
}

// Start begins listening for HTTP requests.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
