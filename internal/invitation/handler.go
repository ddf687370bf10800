package invitation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/metabuy/metabuy-api/internal/team_goal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service InvitationService
}

func NewHandler(service InvitationService) *Handler {
	return &Handler{service: service}
}

type sendInvitationRequest struct {
	ToEmail string `json:"to_email"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var req sendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	inv, err := h.service.SendInvitation(r.Context(), req.ToEmail)
	if err != nil {
		writeServiceError(w, log, err, "Failed to send invitation")
		return
	}

	config.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	invitations, err := h.service.ListPendingInvitations(r.Context())
	if err != nil {
		writeServiceError(w, log, err, "Failed to list invitations")
		return
	}

	config.JSON(w, http.StatusOK, invitations)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	inv, err := h.service.AcceptInvitation(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, team_goal.ErrPropagationIncomplete) {
		writeServiceError(w, log, err, "Failed to accept invitation")
		return
	}
	if err != nil {
		config.JSON(w, http.StatusOK, map[string]any{
			"data":    inv,
			"warning": "accepted, but some team goals were not updated; run member sync",
		})
		return
	}

	config.JSON(w, http.StatusOK, inv)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	inv, err := h.service.RejectInvitation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, log, err, "Failed to reject invitation")
		return
	}

	config.JSON(w, http.StatusOK, inv)
}

func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, failMsg string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrInvitationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvitationExists),
		errors.Is(err, ErrInvitationNotPending),
		errors.Is(err, ErrAlreadyMembers):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrSelfInvitation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error(failMsg)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
