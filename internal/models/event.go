package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event approval statuses. Legacy seed rows may carry an empty status, which
// is treated as approved for catalog visibility.
const (
	EventStatusPending  = "pending"
	EventStatusApproved = "approved"
	EventStatusRejected = "rejected"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID              string    `bun:"id,pk" json:"id"`
	OrganizerID     string    `bun:"organizer_id" json:"organizer_id"`
	Title           string    `bun:"title,notnull" json:"title"`
	Description     string    `bun:"description" json:"description"`
	Date            time.Time `bun:"date,notnull" json:"date"`
	StartTime       string    `bun:"start_time" json:"time"`
	Location        string    `bun:"location,notnull" json:"location"`
	Category        string    `bun:"category" json:"category"`
	PriceCents      int64     `bun:"price_cents" json:"price_cents"`
	Price           string    `bun:"-" json:"price,omitempty"`
	TotalTickets    int       `bun:"total_tickets" json:"total_tickets"`
	AvailableTicket int       `bun:"available_tickets" json:"available_tickets"`
	Status          string    `bun:"status" json:"status"`
	RejectionReason string    `bun:"rejection_reason" json:"rejection_reason,omitempty"`
	Visible         bool      `bun:"visible" json:"visible"`
	CreatedAt       time.Time `bun:"created_at" json:"created_at"`

	TicketTypes []*TicketType `bun:"rel:has-many,join:id=event_id" json:"ticket_types,omitempty"`
}

// PubliclyVisible reports whether the event may appear in the public catalog.
func (e *Event) PubliclyVisible() bool {
	if !e.Visible {
		return false
	}
	return e.Status == EventStatusApproved || e.Status == ""
}

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID               string    `bun:"id,pk" json:"id"`
	EventID          string    `bun:"event_id,notnull" json:"event_id"`
	Name             string    `bun:"name,notnull" json:"name"`
	PriceCents       int64     `bun:"price_cents" json:"price_cents"`
	Price            string    `bun:"-" json:"price,omitempty"`
	TotalTickets     int       `bun:"total_tickets" json:"total_tickets"`
	AvailableTickets int       `bun:"available_tickets" json:"available_tickets"`
	HalfPriceAllowed bool      `bun:"half_price_allowed" json:"half_price_allowed"`
	CreatedAt        time.Time `bun:"created_at" json:"created_at"`

	Batches []*TicketBatch `bun:"rel:has-many,join:id=ticket_type_id" json:"batches,omitempty"`
}

// TicketBatch is a time-boxed, quantity-limited pricing tier within a
// TicketType. Batches activate in Seq order: when one sells out or its window
// closes, the next becomes the sellable one.
type TicketBatch struct {
	bun.BaseModel `bun:"table:ticket_batches"`

	ID                string    `bun:"id,pk" json:"id"`
	TicketTypeID      string    `bun:"ticket_type_id,notnull" json:"ticket_type_id"`
	Seq               int       `bun:"seq,notnull" json:"seq"`
	Name              string    `bun:"name" json:"name"`
	PriceCents        int64     `bun:"price_cents" json:"price_cents"`
	Price             string    `bun:"-" json:"price,omitempty"`
	Quantity          int       `bun:"quantity" json:"quantity"`
	AvailableQuantity int       `bun:"available_quantity" json:"available_quantity"`
	StartsAt          time.Time `bun:"starts_at" json:"starts_at"`
	EndsAt            time.Time `bun:"ends_at" json:"ends_at"`
}

// ActiveWithin reports whether the batch is sellable at the given instant:
// inside its [StartsAt, EndsAt) window and not exhausted.
func (b *TicketBatch) ActiveWithin(now time.Time) bool {
	if b.AvailableQuantity <= 0 {
		return false
	}
	return !now.Before(b.StartsAt) && now.Before(b.EndsAt)
}
