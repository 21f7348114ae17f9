// Package api exposes the document catalog over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"fiscal/internal/fiscal"
	"fiscal/internal/logger"
	"fiscal/internal/metrics"
	"fiscal/pkg/services"
)

// Options configures a Server.
type Options struct {
	// MaxDocumentSize bounds uploaded documents. Defaults to fiscal.MaxDocumentSizeBytes.
	MaxDocumentSize int64

	// EntryUser is recorded on status updates that carry no X-User header.
	EntryUser string
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	ledger  *services.LedgerService
	metrics *metrics.Metrics
	opts    Options
	log     zerolog.Logger
	now     func() time.Time
}

// NewServer creates and configures the HTTP server. m may be nil, in which
// case /metrics is not mounted.
func NewServer(ledger *services.LedgerService, m *metrics.Metrics, opts Options) *Server {
	if opts.MaxDocumentSize <= 0 {
		opts.MaxDocumentSize = fiscal.MaxDocumentSizeBytes
	}
	if opts.EntryUser == "" {
		opts.EntryUser = "system"
	}
	s := &Server{
		ledger:  ledger,
		metrics: m,
		opts:    opts,
		log:     logger.WithComponent("api"),
		now:     time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleImport)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Patch("/{id}/ledger", s.handleUpdateLedger)
	})
	r.Get("/stats", s.handleStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
