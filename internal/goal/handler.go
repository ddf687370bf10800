package goal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service GoalService
}

func NewHandler(service GoalService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto CreateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	g, err := h.service.CreateGoal(r.Context(), dto)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to create goal")
		return
	}

	writeResult(w, http.StatusCreated, g, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	goals, err := h.service.ListGoalsWithSubGoals(r.Context())
	if err != nil {
		writeServiceError(w, log, err, "Failed to list goals")
		return
	}

	config.JSON(w, http.StatusOK, goals)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto UpdateGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	g, err := h.service.UpdateGoal(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to update goal")
		return
	}

	writeResult(w, http.StatusOK, g, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	err := h.service.DeleteGoal(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to delete goal")
		return
	}
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]string{"warning": cascadeWarning})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddSaving(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto AddSavingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	g, err := h.service.AddSaving(r.Context(), chi.URLParam(r, "id"), dto.Amount)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to add saving")
		return
	}

	writeResult(w, http.StatusOK, g, err)
}

func (h *Handler) CreateSubGoal(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto CreateSubGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sg, err := h.service.CreateSubGoal(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to create sub-goal")
		return
	}

	writeResult(w, http.StatusCreated, sg, err)
}

func (h *Handler) UpdateSubGoal(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto UpdateSubGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sg, err := h.service.UpdateSubGoal(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to update sub-goal")
		return
	}

	writeResult(w, http.StatusOK, sg, err)
}

func (h *Handler) DeleteSubGoal(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	err := h.service.DeleteSubGoal(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to delete sub-goal")
		return
	}
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]string{"warning": cascadeWarning})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddSavingToSubGoal(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto AddSavingDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sg, err := h.service.AddSavingToSubGoal(r.Context(), chi.URLParam(r, "id"), dto.Amount)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to add saving to sub-goal")
		return
	}

	writeResult(w, http.StatusOK, sg, err)
}

const cascadeWarning = "saved, but user totals are stale; recompute stats to repair"

// writeResult reports the primary outcome. A cascade failure after commit is
// still a success for the goal itself, so the entity goes out with a warning
// instead of an error status.
func writeResult(w http.ResponseWriter, status int, body any, err error) {
	if err != nil && errors.Is(err, ErrCascadeIncomplete) {
		config.JSON(w, status, map[string]any{
			"data":    body,
			"warning": cascadeWarning,
		})
		return
	}
	config.JSON(w, status, body)
}

func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, failMsg string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrGoalNotFound), errors.Is(err, ErrSubGoalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountExceedsRemaining),
		errors.Is(err, ErrTargetAmountDerived),
		errors.Is(err, ErrAmountBelowSaved):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error(failMsg)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
