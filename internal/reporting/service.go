package reporting

import (
	"fmt"

	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/pricing"
	reportdb "ms-marketplace/internal/reporting/db"
)

type DBLayer interface {
	ListBuyers(eventID string) ([]reportdb.BuyerRow, error)
	SalesTotalsByEvent(eventID string) (*reportdb.SalesTotals, error)
	RefundedCentsByEvent(eventID string) (int64, error)
	CountCheckedIn(eventID string) (int, error)
	GetEventByID(id string) (*models.Event, error)
	GetEventsByOrganizer(organizerID string) ([]models.Event, error)
	GetOrganizerByID(id string) (*models.Organizer, error)
	UpdateOrganizerTotals(organizer *models.Organizer) error
	GetCommissionRule(category string) (*models.CommissionRule, error)
}

// Service computes read-side projections from order snapshots. It never
// touches availability counters; those belong to the inventory ledger.
type Service struct {
	DB      DBLayer
	Pricing *pricing.Engine
	Logger  *logger.Logger
}

func NewService(db DBLayer, engine *pricing.Engine, log *logger.Logger) *Service {
	return &Service{DB: db, Pricing: engine, Logger: log}
}

func (s *Service) ListBuyers(eventID string) ([]reportdb.BuyerRow, error) {
	return s.DB.ListBuyers(eventID)
}

// EventStats is the organizer-facing dashboard block for one event.
type EventStats struct {
	EventID           string  `json:"event_id"`
	Title             string  `json:"title"`
	TicketsSold       int     `json:"tickets_sold"`
	Orders            int     `json:"orders"`
	TotalTickets      int     `json:"total_tickets"`
	OccupancyPct      float64 `json:"occupancy_pct"`
	CheckedIn         int     `json:"checked_in"`
	GrossCents        int64   `json:"gross_cents"`
	ServiceFeeCents   int64   `json:"service_fee_cents"`
	RefundedCents     int64   `json:"refunded_cents"`
	CommissionCents   int64   `json:"commission_cents"`
	OrganizerNetCents int64   `json:"organizer_net_cents"`
}

// EventStats aggregates paid snapshots for one event and applies the
// category's commission rule to the organizer-side gross (ticket subtotal;
// the buyer service fee is platform revenue already).
func (s *Service) EventStats(eventID string) (*EventStats, error) {
	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}

	totals, err := s.DB.SalesTotalsByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales for event %s: %w", eventID, err)
	}
	refunded, err := s.DB.RefundedCentsByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate refunds for event %s: %w", eventID, err)
	}
	checkedIn, err := s.DB.CountCheckedIn(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins for event %s: %w", eventID, err)
	}

	rule, err := s.DB.GetCommissionRule(event.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to load commission rule for %q: %w", event.Category, err)
	}
	commission, organizerNet := s.Pricing.CommissionSplit(totals.SubtotalCents, rule)

	occupancy := 0.0
	if event.TotalTickets > 0 {
		occupancy = float64(totals.TicketsSold) / float64(event.TotalTickets) * 100
	}

	return &EventStats{
		EventID:           event.ID,
		Title:             event.Title,
		TicketsSold:       totals.TicketsSold,
		Orders:            totals.Orders,
		TotalTickets:      event.TotalTickets,
		OccupancyPct:      occupancy,
		CheckedIn:         checkedIn,
		GrossCents:        totals.GrossCents,
		ServiceFeeCents:   totals.FeeCents,
		RefundedCents:     refunded,
		CommissionCents:   commission,
		OrganizerNetCents: organizerNet,
	}, nil
}

// OrganizerStats rolls EventStats up across every event the organizer owns.
type OrganizerStats struct {
	OrganizerID       string       `json:"organizer_id"`
	Name              string       `json:"name"`
	Status            string       `json:"status"`
	TotalEvents       int          `json:"total_events"`
	TicketsSold       int          `json:"tickets_sold"`
	GrossCents        int64        `json:"gross_cents"`
	CommissionCents   int64        `json:"commission_cents"`
	OrganizerNetCents int64        `json:"organizer_net_cents"`
	Events            []EventStats `json:"events"`
}

// OrganizerStats also refreshes the cached totals on the organizer row, so
// the admin listing stays roughly current without a scheduled job.
func (s *Service) OrganizerStats(organizerID string) (*OrganizerStats, error) {
	organizer, err := s.DB.GetOrganizerByID(organizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer %s not found: %w", organizerID, err)
	}
	events, err := s.DB.GetEventsByOrganizer(organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for organizer %s: %w", organizerID, err)
	}

	stats := &OrganizerStats{
		OrganizerID: organizer.ID,
		Name:        organizer.Name,
		Status:      organizer.Status,
		TotalEvents: len(events),
	}
	for _, event := range events {
		eventStats, err := s.EventStats(event.ID)
		if err != nil {
			return nil, err
		}
		stats.TicketsSold += eventStats.TicketsSold
		stats.GrossCents += eventStats.GrossCents
		stats.CommissionCents += eventStats.CommissionCents
		stats.OrganizerNetCents += eventStats.OrganizerNetCents
		stats.Events = append(stats.Events, *eventStats)
	}

	organizer.TotalEvents = stats.TotalEvents
	organizer.TotalRevenueCents = stats.OrganizerNetCents
	if err := s.DB.UpdateOrganizerTotals(organizer); err != nil {
		s.Logger.Warn("REPORTING", fmt.Sprintf("failed to refresh totals for organizer %s: %v", organizerID, err))
	}

	return stats, nil
}
