package team_goal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{id}/contributions", h.Contribute)
	r.Post("/sync-members", h.SyncMembers)

	return r
}
