package invitation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Send)
	r.Get("/", h.List)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/reject", h.Reject)

	return r
}
