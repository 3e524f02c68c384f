// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// markpress. Routes fall into the page group (HTML, CSRF protected) and
// the /api group (JSON, CORS and rate limited).
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"markpress/internal/handlers"
	"markpress/internal/middleware"
	"markpress/internal/session"
	"markpress/internal/theme"
)

// Options configure the middleware stacks.
type Options struct {
	// Secure marks cookies Secure and enables HSTS.
	Secure       bool
	DefaultTheme theme.Theme
	CORSOrigins  []string
	// RateLimiter guards /api. Nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	// Static is served under /static/. Nil disables it.
	Static fs.FS
}

// Handlers groups the handler sets the router mounts.
type Handlers struct {
	Public  *handlers.Public
	Editor  *handlers.Editor
	Chat    *handlers.Chat
	Images  *handlers.Images
	Uploads *handlers.Uploads
	Media   *handlers.Media
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions *session.Store, opts Options, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.Secure))
	r.Use(middleware.LoadSession(sessions))
	r.Use(middleware.ResolveTheme(opts.DefaultTheme))

	r.Get("/health", healthHandler)

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}
	if h.Media != nil {
		r.Get("/media/*", h.Media.Serve)
	}

	// Pages and form posts.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.Secure))

		r.Get("/", h.Public.Homepage)
		r.Get("/blog/{slug}", h.Public.Post)
		r.Get("/tags", h.Public.Tags)
		r.Get("/tags/{tag}", h.Public.Tag)
		r.Get("/docs", h.Public.DocsIndex)
		r.Get("/docs/{slug}", h.Public.Doc)

		r.Post("/theme/toggle", h.Public.ThemeToggle)
		r.Post("/diff-view", h.Public.SetDiffView)

		if h.Editor != nil {
			r.Route("/editor", func(r chi.Router) {
				r.Get("/", h.Editor.Page)
				r.Post("/preview", h.Editor.Preview)
				r.Post("/drafts", h.Editor.Create)
				r.Put("/drafts/{id}", h.Editor.Update)
				r.Delete("/drafts/{id}", h.Editor.Delete)
				r.Post("/drafts/{id}/publish", h.Editor.Publish)
			})
		}
		if h.Chat != nil {
			r.Get("/chat", h.Chat.Page)
		}
	})

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins(opts.CORSOrigins),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", theme.HeaderName},
			MaxAge:         300,
		}))
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		r.Get("/docs/{slug}", h.Public.DocJSON)

		if h.Chat != nil {
			r.Get("/models", h.Chat.Models)
			r.Post("/chats", h.Chat.Create)
			r.Get("/chats", h.Chat.List)
			r.Get("/chats/{id}", h.Chat.Get)
			r.Post("/chats/{id}/messages", h.Chat.Send)
		}
		if h.Images != nil {
			r.Post("/images", h.Images.Generate)
			r.Get("/images", h.Images.List)
		}
		if h.Uploads != nil {
			r.Post("/uploads", h.Uploads.Create)
		}
	})

	r.NotFound(h.Public.NotFound)

	return r
}

func corsOrigins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"*"}
	}
	return configured
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
