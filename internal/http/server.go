// Package http serves the dashboard UI: full-page render plus htmx partials
// for the items table, the edit modal and the analytics view. All data comes
// from the backend ports; this layer owns only session state and rendering.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"finboard/internal/backend"
	"finboard/internal/dashboard"
	"finboard/internal/session"
	appweb "finboard/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	backend     backend.Backend
	sessions    *session.Store
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, be backend.Backend, sessions *session.Store) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: r,
		},
		backend:     be,
		sessions:    sessions,
		rateLimiter: newRateLimiter(),
	}

	funcs := template.FuncMap{
		"money": dashboard.FormatAmount,
	}
	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	// Static assets from the embedded FS, with a small client cache.
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static FS: %w", err)
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	r.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		fileServer.ServeHTTP(w, req)
	}))

	r.Group(func(r chi.Router) {
		r.Use(s.withSecurityHeaders)

		r.Get("/", s.handleIndex)

		r.Route("/ui", func(r chi.Router) {
			r.Get("/items", s.handleListItems)
			r.Post("/items", s.handleCreateItem)
			r.Get("/items/{id}/edit", s.handleOpenEdit)
			r.Put("/items/{id}", s.handleUpdateItem)
			r.Delete("/items/{id}", s.handleDeleteItem)
			r.Post("/modal/close", s.handleCloseModal)

			r.Get("/analytics", s.handleAnalytics)
		})

		r.Get("/export/csv", s.handleExportCSV)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	return s, nil
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func logError(ctx context.Context, msg string, err error, args ...any) {
	slog.ErrorContext(ctx, msg, append([]any{"error", err}, args...)...)
}
