package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(docs *docservice.Service, sessions *session.Manager, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(docs, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Stateless commands.
	r.Get("/commands", h.ListCommands)
	r.Post("/transform/{command}", h.Transform)
	r.Post("/dates", h.DecorateDates)

	// Vault documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Post("/documents/{command}/*", h.ApplyCommand)
	r.Get("/preview/{command}/*", h.PreviewCommand)

	// Date decoration sessions.
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/annotations", h.SessionAnnotations)
			r.Put("/selection", h.SetSelection)
			r.Put("/viewport", h.SetViewport)
			r.Put("/mode", h.SetMode)
			r.Put("/pointer", h.SetPointer)
			r.Delete("/", h.CloseSession)
		})
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
