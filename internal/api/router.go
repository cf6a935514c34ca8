package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/noteflow/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)

		// Editor session.
		r.Get("/editor", h.OpenEditor)
		r.Put("/editable", h.SetEditable)
		r.Post("/commands", h.ExecCommand)
		r.Post("/undo", h.Undo)
		r.Post("/redo", h.Redo)

		// In-note search and replace.
		r.Post("/search", h.Find)
		r.Post("/search/next", h.FindNext)
		r.Post("/search/previous", h.FindPrevious)
		r.Delete("/search", h.ClearSearch)
		r.Post("/replace", h.Replace)

		r.Get("/export", h.ExportNote)
	})

	r.Post("/import", h.ImportNote)
	r.Get("/search", h.Search)
	r.Get("/presets", h.Presets)
	r.Put("/theme", h.SetTheme)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
