// Package router sets up all HTTP routes and middleware chains for the
// propostaflow API. Rendering and export share a rate-limited group since
// they are the expensive endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"propostaflow/internal/handlers"
	"propostaflow/internal/middleware"
)

// Options tunes the middleware stack.
type Options struct {
	// MaxBodyBytes caps request bodies. Zero disables the cap.
	MaxBodyBytes int64

	// RenderLimiter throttles render and export per client. Nil disables
	// throttling.
	RenderLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if opts.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBody(opts.MaxBodyBytes))
	}

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/variables", api.Variables)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", api.ListTemplates)
			r.Post("/", api.CreateTemplate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.GetTemplate)
				r.Put("/", api.UpdateTemplate)
				r.Delete("/", api.DeleteTemplate)

				r.Get("/revisions", api.ListRevisions)
				r.Post("/revisions/{revID}/restore", api.RestoreRevision)
				r.Get("/exports", api.ListExports)

				// Rendering: rate limited, and the document is served
				// under a locked-down content policy.
				r.Group(func(r chi.Router) {
					if opts.RenderLimiter != nil {
						r.Use(opts.RenderLimiter.Middleware)
					}
					r.With(middleware.DocumentPolicy).Post("/render", api.Render)
					r.Post("/export", api.Export)
				})
			})
		})

		r.Route("/editor/sessions", func(r chi.Router) {
			r.Post("/", api.OpenSession)
			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", api.GetSession)
				r.Delete("/", api.CloseSession)
				r.Post("/commands", api.ApplyCommand)
				r.Post("/save", api.SaveSession)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
