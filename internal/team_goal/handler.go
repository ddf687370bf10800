package team_goal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service TeamGoalService
}

func NewHandler(service TeamGoalService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto CreateTeamGoalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateTeamGoal(r.Context(), dto)
	if err != nil {
		writeServiceError(w, log, err, "Failed to create team goal")
		return
	}

	config.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	goals, err := h.service.ListTeamGoals(r.Context())
	if err != nil {
		writeServiceError(w, log, err, "Failed to list team goals")
		return
	}

	config.JSON(w, http.StatusOK, goals)
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto ContributeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Contribute(r.Context(), chi.URLParam(r, "id"), dto.Amount)
	if err != nil && !errors.Is(err, ErrCascadeIncomplete) {
		writeServiceError(w, log, err, "Failed to contribute to team goal")
		return
	}
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]any{
			"data":    resp,
			"warning": "saved, but user totals are stale; recompute stats to repair",
		})
		return
	}

	config.JSON(w, http.StatusOK, resp)
}

func (h *Handler) SyncMembers(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	err := h.service.SyncMembers(r.Context())
	if err != nil && !errors.Is(err, ErrPropagationIncomplete) {
		writeServiceError(w, log, err, "Failed to sync team goal members")
		return
	}
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]string{
			"warning": "some goals were not updated; retry sync",
		})
		return
	}

	config.JSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, failMsg string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNotMember):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrTeamGoalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountExceedsRemaining):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error(failMsg)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
