package catalog

import (
	"fmt"
	"time"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/catalog/db"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"

	"github.com/google/uuid"
)

// ValidationError reports client-fixable input problems.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

type DBLayer interface {
	CreateEvent(event *models.Event) error
	GetEventByID(id string) (*models.Event, error)
	UpdateEvent(event *models.Event) error
	ListEvents(filter db.ListFilter) ([]models.Event, error)
	CreateTicketType(ticketType *models.TicketType) error
	GetTicketTypeByID(id string) (*models.TicketType, error)
	GetTicketTypesByEvent(eventID string) ([]*models.TicketType, error)
	CreateBatch(batch *models.TicketBatch) error
	NextBatchSeq(ticketTypeID string) (int, error)
	GetBatchesByType(ticketTypeID string) ([]*models.TicketBatch, error)
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(dbLayer DBLayer, log *logger.Logger) *Service {
	return &Service{DB: dbLayer, Logger: log}
}

// CreateEvent validates and stores a new event. Events always enter the
// approval queue as pending.
func (s *Service) CreateEvent(event *models.Event) error {
	if event.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if event.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	if event.Location == "" {
		return &ValidationError{Field: "location", Message: "location is required"}
	}
	if event.TotalTickets < 1 {
		return &ValidationError{Field: "total_tickets", Message: "must be at least 1"}
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Status = models.EventStatusPending
	event.Visible = true
	if event.AvailableTicket == 0 {
		event.AvailableTicket = event.TotalTickets
	}
	if event.AvailableTicket > event.TotalTickets {
		return &ValidationError{Field: "available_tickets", Message: "cannot exceed total_tickets"}
	}
	event.CreatedAt = time.Now()

	if err := s.DB.CreateEvent(event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("created event %s (%s)", event.ID, event.Title))
	return nil
}

// AddTicketType attaches a ticket type to an event and refreshes the event's
// derived aggregates.
func (s *Service) AddTicketType(eventID string, ticketType *models.TicketType) error {
	if ticketType.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if ticketType.TotalTickets < 1 {
		return &ValidationError{Field: "total_tickets", Message: "must be at least 1"}
	}
	if ticketType.AvailableTickets == 0 {
		ticketType.AvailableTickets = ticketType.TotalTickets
	}
	if ticketType.AvailableTickets > ticketType.TotalTickets {
		return &ValidationError{Field: "available_tickets", Message: "cannot exceed total_tickets"}
	}

	if _, err := s.DB.GetEventByID(eventID); err != nil {
		return fmt.Errorf("event %s not found: %w", eventID, err)
	}

	if ticketType.ID == "" {
		ticketType.ID = uuid.NewString()
	}
	ticketType.EventID = eventID
	ticketType.CreatedAt = time.Now()

	if err := s.DB.CreateTicketType(ticketType); err != nil {
		return fmt.Errorf("failed to create ticket type: %w", err)
	}

	return s.RecomputeEventAggregates(eventID)
}

// AddBatch appends a batch at the end of the type's ordered sequence.
func (s *Service) AddBatch(ticketTypeID string, batch *models.TicketBatch) error {
	if batch.Quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}
	if !batch.EndsAt.After(batch.StartsAt) {
		return &ValidationError{Field: "ends_at", Message: "must be after starts_at"}
	}

	ticketType, err := s.DB.GetTicketTypeByID(ticketTypeID)
	if err != nil {
		return fmt.Errorf("ticket type %s not found: %w", ticketTypeID, err)
	}

	seq, err := s.DB.NextBatchSeq(ticketTypeID)
	if err != nil {
		return fmt.Errorf("failed to determine batch sequence: %w", err)
	}

	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	batch.TicketTypeID = ticketTypeID
	batch.Seq = seq
	if batch.Name == "" {
		batch.Name = fmt.Sprintf("Lote %d", seq)
	}
	if batch.AvailableQuantity == 0 {
		batch.AvailableQuantity = batch.Quantity
	}

	if err := s.DB.CreateBatch(batch); err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}

	// Advisory reconciliation check: batch quantities should add up to the
	// owning type's total, but the catalog does not enforce it.
	batches, err := s.DB.GetBatchesByType(ticketTypeID)
	if err == nil {
		sum := 0
		for _, b := range batches {
			sum += b.Quantity
		}
		if sum != ticketType.TotalTickets {
			s.Logger.Warn("CATALOG", fmt.Sprintf(
				"batch quantities for type %s sum to %d, type total is %d",
				ticketTypeID, sum, ticketType.TotalTickets))
		}
	}

	return nil
}

// RecomputeEventAggregates re-derives the event-level totals from its ticket
// types: totals are sums, price is the cheapest type. Flat-priced events
// (no types) keep their own counters.
func (s *Service) RecomputeEventAggregates(eventID string) error {
	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return fmt.Errorf("event %s not found: %w", eventID, err)
	}

	ticketTypes, err := s.DB.GetTicketTypesByEvent(eventID)
	if err != nil {
		return fmt.Errorf("failed to load ticket types: %w", err)
	}
	if len(ticketTypes) == 0 {
		return nil
	}

	total, available := 0, 0
	minPrice := ticketTypes[0].PriceCents
	for _, tt := range ticketTypes {
		total += tt.TotalTickets
		available += tt.AvailableTickets
		if tt.PriceCents < minPrice {
			minPrice = tt.PriceCents
		}
	}

	event.TotalTickets = total
	event.AvailableTicket = available
	event.PriceCents = minPrice

	if err := s.DB.UpdateEvent(event); err != nil {
		return fmt.Errorf("failed to update event aggregates: %w", err)
	}
	return nil
}

// Filter is the caller-facing listing filter; the status filter is honored
// for admins only.
type Filter struct {
	Category string
	Search   string
	Status   string
}

// ListEvents applies role-based visibility: the public sees approved visible
// events, organizers additionally see their own submissions, admins see all.
func (s *Service) ListEvents(filter Filter, caller auth.Caller) ([]models.Event, error) {
	dbFilter := db.ListFilter{Category: filter.Category, Search: filter.Search}

	switch caller.Role {
	case auth.RoleAdmin:
		if filter.Status != "" {
			dbFilter.Statuses = []string{filter.Status}
		}
		return s.DB.ListEvents(dbFilter)
	case auth.RoleOrganizer:
		events, err := s.DB.ListEvents(dbFilter)
		if err != nil {
			return nil, err
		}
		visible := make([]models.Event, 0, len(events))
		for _, ev := range events {
			owned := caller.OrganizerID != "" && ev.OrganizerID == caller.OrganizerID
			if ev.PubliclyVisible() || owned {
				visible = append(visible, ev)
			}
		}
		return visible, nil
	default:
		events, err := s.DB.ListEvents(dbFilter)
		if err != nil {
			return nil, err
		}
		visible := make([]models.Event, 0, len(events))
		for _, ev := range events {
			if ev.PubliclyVisible() {
				visible = append(visible, ev)
			}
		}
		return visible, nil
	}
}

// GetEvent returns one event with types and batches, honoring visibility.
func (s *Service) GetEvent(id string, caller auth.Caller) (*models.Event, error) {
	event, err := s.DB.GetEventByID(id)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", id, err)
	}
	owned := caller.OrganizerID != "" && event.OrganizerID == caller.OrganizerID
	if event.PubliclyVisible() || caller.IsAdmin() || owned {
		return event, nil
	}
	return nil, fmt.Errorf("event %s not found", id)
}
