// Package api exposes the outline lifecycle over HTTP so a display layer can
// drive viewing, editing, regeneration, and export.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/research-index/internal/lifecycle"
)

// Server is the HTTP API server for research-index.
type Server struct {
	router     chi.Router
	controller *lifecycle.Controller
	log        *slog.Logger
	apiKey     string
}

// NewServer creates and configures the HTTP server. When apiKey is empty the
// /api routes are served without authentication.
func NewServer(controller *lifecycle.Controller, log *slog.Logger, apiKey string) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		controller: controller,
		log:        log,
		apiKey:     apiKey,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(AuthMiddleware(s.apiKey, s.log))
		}

		r.Post("/api/score", s.handleScore)

		r.Route("/api/index", func(r chi.Router) {
			r.Get("/", s.handleGetIndex)
			r.Delete("/", s.handleDiscard)
			r.Post("/load", s.handleLoad)
			r.Post("/generate", s.handleGenerate)
			r.Post("/edit", s.handleBeginEdit)
			r.Put("/draft", s.handleSetDraft)
			r.Post("/save", s.handleSave)
			r.Post("/cancel", s.handleCancel)
			r.Post("/regenerate", s.handleRegenerate)
			r.Get("/export", s.handleExport)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
