package goal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/savings", h.AddSaving)
	r.Post("/{id}/sub-goals", h.CreateSubGoal)

	return r
}

func SubGoalRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Put("/{id}", h.UpdateSubGoal)
	r.Delete("/{id}", h.DeleteSubGoal)
	r.Post("/{id}/savings", h.AddSavingToSubGoal)

	return r
}
