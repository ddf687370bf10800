package quick_list

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metabuy/metabuy-api/internal/config"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service QuickListService
}

func NewHandler(service QuickListService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto CreateQuickListItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		log.WithError(err).Error("Invalid request body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), dto)
	if err != nil {
		writeServiceError(w, log, err, "Failed to create quick list item")
		return
	}

	config.JSON(w, http.StatusCreated, item)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	items, err := h.service.ListItems(r.Context())
	if err != nil {
		writeServiceError(w, log, err, "Failed to list quick list items")
		return
	}

	config.JSON(w, http.StatusOK, items)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	item, err := h.service.ToggleItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, log, err, "Failed to toggle quick list item")
		return
	}

	config.JSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, log, err, "Failed to delete quick list item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error, failMsg string) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrTextRequired),
		errors.Is(err, ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error(failMsg)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
