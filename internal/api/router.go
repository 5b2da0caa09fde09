package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordhoard/internal/wordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *wordservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Known words.
	r.Get("/words", h.ListWords)
	r.Get("/words/random", h.RandomWords)

	// Definitions.
	r.Post("/words", h.AddWord)
	r.Get("/words/{word}", h.GetWord)
	r.Delete("/words/{word}", h.RemoveWord)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
