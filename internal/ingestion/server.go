// Package ingestion is the loopback HTTP surface hook adapters post to:
// /health, /prompt, /observation, /summary, /complete, and the retrieval
// endpoint /context. Grounded on the general net/http handler/route
// registration shape seen across the retrieved corpus's own loopback
// memory services (thebtf-engram's worker handlers), adapted to stdlib
// net/http.ServeMux since the donor itself runs no HTTP server at all and
// pulling in a router library for five flat routes would be unjustified.
package ingestion

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/claude-mem/memoryd/internal/router"
	"github.com/claude-mem/memoryd/internal/store"
)

// Version is the daemon's reported version for /health.
const Version = "0.1.0"

// Server is the loopback HTTP surface. All writes are forwarded to the
// Router; reads go straight to the Store, which may run concurrently with
// the router's single writer thanks to SQLite's WAL mode.
type Server struct {
	Store     *store.SQLiteStore
	Router    *router.Router
	Log       zerolog.Logger
	SkipTools map[string]bool

	startedAt time.Time
	srv       *http.Server
}

// New builds a Server bound to addr (e.g. "127.0.0.1:3456").
func New(addr string, s *store.SQLiteStore, r *router.Router, skipTools map[string]bool, log zerolog.Logger) *Server {
	srv := &Server{
		Store:     s,
		Router:    r,
		Log:       log.With().Str("component", "ingestion").Logger(),
		SkipTools: skipTools,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/prompt", srv.handlePrompt)
	mux.HandleFunc("/observation", srv.handleObservation)
	mux.HandleFunc("/summary", srv.handleSummary)
	mux.HandleFunc("/complete", srv.handleComplete)
	mux.HandleFunc("/context", srv.handleContext)

	srv.srv = &http.Server{Addr: addr, Handler: mux}
	return srv
}

// ListenAndServe runs the server until it errors or is shut down.
func (s *Server) ListenAndServe() error {
	s.Log.Info().Str("addr", s.srv.Addr).Msg("ingestion server listening")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener within the given deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
