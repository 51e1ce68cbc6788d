package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/datatable/internal/core"
	"github.com/JonMunkholm/datatable/internal/tableview"
)

// session holds one browser's table state, one store per view.
// mu serializes every read and write of the stores.
type session struct {
	mu       sync.Mutex
	id       string
	stores   map[string]*core.Store
	pageSize int
	lastSeen time.Time
}

// store returns the store for view, creating it on first use. Callers hold mu.
func (s *session) store(view tableview.View) *core.Store {
	key := view.String()
	st, ok := s.stores[key]
	if !ok {
		st = core.NewStore(core.WithPageSize(s.pageSize))
		s.stores[key] = st
	}
	return st
}

// sessionRegistry tracks live sessions by id and evicts idle ones.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	pageSize int
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration, pageSize int) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// get returns the session for id, creating a fresh one when id is unknown
// or empty. The returned id differs from the input when a session was created.
func (reg *sessionRegistry) get(id string) *session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if sess, ok := reg.sessions[id]; ok && id != "" {
		sess.lastSeen = reg.now()
		return sess
	}

	sess := &session{
		id:       uuid.New().String(),
		stores:   make(map[string]*core.Store),
		pageSize: reg.pageSize,
		lastSeen: reg.now(),
	}
	reg.sessions[sess.id] = sess
	return sess
}

// len returns the number of live sessions.
func (reg *sessionRegistry) len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// sweep removes sessions idle for longer than the TTL.
func (reg *sessionRegistry) sweep() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cutoff := reg.now().Add(-reg.ttl)
	removed := 0
	for id, sess := range reg.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(reg.sessions, id)
			removed++
		}
	}
	return removed
}

// run sweeps on every interval until ctx is done.
func (reg *sessionRegistry) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.sweep(); n > 0 {
				slog.Debug("expired table sessions", "removed", n, "remaining", reg.len())
			}
		}
	}
}

type sessionCtxKey struct{}

// sessions attaches the caller's session to the request, issuing a cookie
// when the browser has none or its session expired.
func (s *Server) sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess := s.registry.get(id)
		if sess.id != id {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
		ctx = core.ContextWithSessionID(ctx, sess.id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext returns the session attached by the sessions middleware.
func sessionFromContext(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*session)
	return sess
}
