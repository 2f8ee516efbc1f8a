package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order"
	"ms-marketplace/internal/tickets"
	"ms-marketplace/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.Service
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.Service, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

func checkInStatus(err error) int {
	switch {
	case errors.Is(err, order.ErrAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GET /api/v1/orders/{orderId}/tickets
func (h *Handler) TicketsByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ticketList, err := h.TicketService.TicketsByOrder(orderID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("tickets not found", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tickets", ticketList))
}

// POST /api/v1/tickets/{ticketId}/check-in  (staff only)
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	ticket, err := h.TicketService.CheckIn(ticketID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckIn: %v", err))
		utils.WriteJSON(w, checkInStatus(err), utils.ErrorResponse("check-in failed", err.Error()))
		return
	}

	resp := models.CheckInResponse{
		TicketID:      ticket.TicketID,
		OrderID:       ticket.OrderID,
		CheckedInTime: ticket.CheckedInTime,
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("checked in", resp))
}

// POST /api/v1/check-in/scan  (staff only) — body carries the raw QR string
func (h *Handler) ScanQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid scan JSON", "code is required"))
		return
	}

	ticket, err := h.TicketService.VerifyQR(req.Code)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ScanQR: %v", err))
		utils.WriteJSON(w, checkInStatus(err), utils.ErrorResponse("check-in failed", err.Error()))
		return
	}

	resp := models.CheckInResponse{
		TicketID:      ticket.TicketID,
		OrderID:       ticket.OrderID,
		CheckedInTime: ticket.CheckedInTime,
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("checked in", resp))
}

// GET /api/v1/events/{eventId}/attendance  (staff/organizer/admin)
func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	checkedIn, total, err := h.TicketService.Attendance(eventID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not load attendance", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("attendance", map[string]int{
		"checked_in": checkedIn,
		"total":      total,
	}))
}
