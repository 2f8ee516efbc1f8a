package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/catalog"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/pricing"
	"ms-marketplace/internal/utils"

	"github.com/go-chi/chi/v5"
)

// resolvePrice fills cents from the display "price" field when the request
// carries one instead of price_cents.
func resolvePrice(display string, cents *int64) error {
	if display == "" {
		return nil
	}
	parsed, err := pricing.ParsePrice(display)
	if err != nil {
		return err
	}
	*cents = parsed
	return nil
}

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(catalogService *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Catalog: catalogService, Logger: log}
}

// POST /api/v1/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event JSON", err.Error()))
		return
	}

	caller := auth.CallerFromContext(r.Context())
	if event.OrganizerID == "" {
		event.OrganizerID = caller.OrganizerID
	}
	if err := resolvePrice(event.Price, &event.PriceCents); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid price", err.Error()))
		return
	}

	if err := h.Catalog.CreateEvent(&event); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("event rejected", vErr.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not create event", err.Error()))
		return
	}

	h.Logger.LogWorkflow("SUBMITTED", event.ID, "event awaiting approval")
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("event created", event))
}

// GET /api/v1/events?category=&search=&status=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	filter := catalog.Filter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	// Status filtering is an admin concern; others get role-scoped visibility
	if caller.IsAdmin() {
		filter.Status = r.URL.Query().Get("status")
	}

	events, err := h.Catalog.ListEvents(filter, caller)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not list events", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", events))
}

// GET /api/v1/events/{eventId}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	caller := auth.CallerFromContext(r.Context())

	event, err := h.Catalog.GetEvent(eventID, caller)
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("event not found", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event", event))
}

// POST /api/v1/events/{eventId}/ticket-types
func (h *Handler) AddTicketType(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var ticketType models.TicketType
	if err := json.NewDecoder(r.Body).Decode(&ticketType); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket type JSON", err.Error()))
		return
	}

	if err := resolvePrice(ticketType.Price, &ticketType.PriceCents); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid price", err.Error()))
		return
	}

	if err := h.Catalog.AddTicketType(eventID, &ticketType); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("ticket type rejected", vErr.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("AddTicketType: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not add ticket type", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("ticket type added", ticketType))
}

// POST /api/v1/ticket-types/{ticketTypeId}/batches
func (h *Handler) AddBatch(w http.ResponseWriter, r *http.Request) {
	ticketTypeID := chi.URLParam(r, "ticketTypeId")

	var batch models.TicketBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid batch JSON", err.Error()))
		return
	}

	if err := resolvePrice(batch.Price, &batch.PriceCents); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid price", err.Error()))
		return
	}

	if err := h.Catalog.AddBatch(ticketTypeID, &batch); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("batch rejected", vErr.Error()))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("AddBatch: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("could not add batch", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("batch added", batch))
}
