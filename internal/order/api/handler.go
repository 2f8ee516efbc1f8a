package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-marketplace/internal/inventory"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order"
	"ms-marketplace/internal/pricing"
	"ms-marketplace/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.Service
	Logger       *logger.Logger
	HoldTTL      time.Duration
}

func NewHandler(orderService *order.Service, log *logger.Logger, holdTTL time.Duration) *Handler {
	return &Handler{OrderService: orderService, Logger: log, HoldTTL: holdTTL}
}

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inventory.ErrInsufficientInventory):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, pricing.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrRefundWindowClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, order.ErrReservationExpired):
		return http.StatusGone
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/v1/events/{eventId}/ticket-types/{ticketTypeId}/reserve
// POST /api/v1/events/{eventId}/reserve  (flat-priced events)
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	ticketTypeID := chi.URLParam(r, "ticketTypeId")

	var req models.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid reserve JSON", err.Error()))
		return
	}
	if req.Quantity < 1 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid quantity", "quantity must be at least 1"))
		return
	}

	placed, err := h.OrderService.PlaceOrder(r.Context(), eventID, ticketTypeID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Reserve: %v", err))
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse("could not reserve tickets", err.Error()))
		return
	}

	resp := models.ReserveResponse{
		OrderID:         placed.OrderID,
		EventID:         placed.EventID,
		TicketTypeID:    placed.TicketTypeID,
		BatchID:         placed.BatchID,
		Quantity:        placed.Quantity,
		UnitPriceCents:  placed.UnitPriceCents,
		ServiceFeeCents: placed.ServiceFeeCents,
		TotalCents:      placed.TotalCents,
		ExpiresAt:       placed.ReservedAt.Add(h.HoldTTL).Format(time.RFC3339),
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("tickets reserved", resp))
}

// GET /api/v1/orders/{orderId}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("order not found", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order", orderData))
}

// POST /api/v1/orders/{orderId}/confirm
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	confirmed, err := h.OrderService.ConfirmPayment(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ConfirmPayment: %v", err))
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse("could not confirm payment", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("payment confirmed", confirmed))
}

// DELETE /api/v1/orders/{orderId}
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	if err := h.OrderService.CancelOrder(r.Context(), orderID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelOrder: %v", err))
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse("could not cancel order", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/orders/{orderId}/refund-request
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	refunding, err := h.OrderService.RequestRefund(orderID, time.Now())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RequestRefund: %v", err))
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse("could not request refund", err.Error()))
		return
	}

	resp := models.RefundResponse{OrderID: refunding.OrderID, Status: refunding.Status}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("refund requested", resp))
}

// POST /api/v1/orders/{orderId}/refund-resolve  (admin only)
func (h *Handler) ResolveRefund(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.RefundResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid refund resolve JSON", err.Error()))
		return
	}

	resolved, err := h.OrderService.ResolveRefund(r.Context(), orderID, req.Approve)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ResolveRefund: %v", err))
		utils.WriteJSON(w, statusFor(err), utils.ErrorResponse("could not resolve refund", err.Error()))
		return
	}

	resp := models.RefundResponse{
		OrderID:           resolved.OrderID,
		Status:            resolved.Status,
		RefundAmountCents: resolved.RefundAmountCents,
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("refund resolved", resp))
}
