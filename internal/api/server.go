// Package api serves the catalog, composer, hook inserter and page index over
// HTTP for browser-based editors.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/pkg/catalog"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:7411"

// Config holds configuration for the API server.
type Config struct {
	Catalog    *catalog.Catalog
	Pages      *pages.Index
	IndentUnit string
	Addr       string
	// Watch runs the page index watcher alongside the server.
	Watch bool
	// SessionSecret signs the cookie that remembers recent actions.
	SessionSecret string
	Logger        *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	catalog      *catalog.Catalog
	index        *pages.Index
	indentUnit   string
	addr         string
	watch        bool
	sessionStore *sessions.CookieStore
	logger       *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	index := cfg.Pages
	if index == nil {
		index = pages.NewIndex("", logger)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Sessions then only survive until restart.
		secret = securecookie.GenerateRandomKey(32)
		logger.Warn("no session secret configured, using a random one")
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		catalog:      cat,
		index:        index,
		indentUnit:   cfg.IndentUnit,
		addr:         addr,
		watch:        cfg.Watch,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/actions", s.handleActions)
		r.Get("/actions/grouped", s.handleGroupedActions)
		r.Get("/actions/recent", s.handleRecentActions)
		r.Post("/compose", s.handleCompose)
		r.Post("/hooks", s.handleHooks)
		r.Get("/pages", s.handlePages)
		r.Get("/pages/events", s.handlePageEvents)
	})
	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", "http://"+s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.index.Watch(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
