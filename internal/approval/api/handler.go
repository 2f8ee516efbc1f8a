package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-marketplace/internal/approval"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Approval *approval.Service
	Logger   *logger.Logger
}

func NewHandler(approvalService *approval.Service, log *logger.Logger) *Handler {
	return &Handler{Approval: approvalService, Logger: log}
}

func workflowStatus(err error) int {
	switch {
	case errors.Is(err, approval.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, approval.ErrReasonRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/v1/organizer-requests  (public)
func (h *Handler) SubmitOrganizerRequest(w http.ResponseWriter, r *http.Request) {
	var request models.OrganizerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request JSON", err.Error()))
		return
	}

	if err := h.Approval.SubmitOrganizerRequest(&request); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitOrganizerRequest: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("could not submit request", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("organizer request submitted", request))
}

// GET /api/v1/organizer-requests?status=pending  (admin)
func (h *Handler) ListOrganizerRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Approval.ListOrganizerRequests(r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not list requests", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer requests", requests))
}

// POST /api/v1/organizer-requests/{requestId}/approve  (admin)
func (h *Handler) ApproveOrganizerRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	organizer, err := h.Approval.ApproveOrganizerRequest(requestID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApproveOrganizerRequest: %v", err))
		utils.WriteJSON(w, workflowStatus(err), utils.ErrorResponse("could not approve request", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer approved", organizer))
}

// POST /api/v1/organizer-requests/{requestId}/reject  (admin)
func (h *Handler) RejectOrganizerRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")

	if err := h.Approval.RejectOrganizerRequest(requestID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectOrganizerRequest: %v", err))
		utils.WriteJSON(w, workflowStatus(err), utils.ErrorResponse("could not reject request", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer request rejected", nil))
}

// POST /api/v1/organizers/{organizerId}/suspend  (admin)
func (h *Handler) SuspendOrganizer(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "organizerId")

	if err := h.Approval.SuspendOrganizer(organizerID); err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("could not suspend organizer", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer suspended", nil))
}

// POST /api/v1/organizers/{organizerId}/reactivate  (admin)
func (h *Handler) ReactivateOrganizer(w http.ResponseWriter, r *http.Request) {
	organizerID := chi.URLParam(r, "organizerId")

	if err := h.Approval.ReactivateOrganizer(organizerID); err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("could not reactivate organizer", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("organizer reactivated", nil))
}

// POST /api/v1/events/{eventId}/approve  (admin)
func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	if err := h.Approval.ApproveEvent(eventID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApproveEvent: %v", err))
		utils.WriteJSON(w, workflowStatus(err), utils.ErrorResponse("could not approve event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event approved", nil))
}

// POST /api/v1/events/{eventId}/reject  (admin) — body carries the reason
func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request JSON", err.Error()))
		return
	}

	if err := h.Approval.RejectEvent(eventID, req.Reason); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectEvent: %v", err))
		utils.WriteJSON(w, workflowStatus(err), utils.ErrorResponse("could not reject event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event rejected", nil))
}
