package api

import (
	"fmt"
	"net/http"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/reporting"
	"ms-marketplace/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Reporting *reporting.Service
	Logger    *logger.Logger
}

func NewHandler(reportingService *reporting.Service, log *logger.Logger) *Handler {
	return &Handler{Reporting: reportingService, Logger: log}
}

// GET /api/v1/events/{eventId}/buyers  (organizer/admin)
func (h *Handler) ListBuyers(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	buyers, err := h.Reporting.ListBuyers(eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBuyers: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not load buyers", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("buyers", buyers))
}

// GET /api/v1/events/{eventId}/stats  (organizer/admin)
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	stats, err := h.Reporting.EventStats(eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventStats: %v", err))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("could not load stats", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event stats", stats))
}

// GET /api/v1/organizers/{organizerId}/stats  (admin, or the organizer itself)
func (h *Handler) OrganizerStats(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "organizerId")

	caller := auth.CallerFromContext(r.Context())
	if !caller.IsAdmin() && caller.OrganizerID != organizerID {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("forbidden", "not your organizer account"))
		return
	}

	stats, err := h.Reporting.OrganizerStats(organizerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("OrganizerStats: %v", err))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("could not load stats", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer stats", stats))
}
