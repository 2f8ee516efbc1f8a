package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one admission credential within an order, issued when payment is
// confirmed. QRCode holds the rendered PNG of the encrypted payload.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID      string    `bun:"ticket_id,pk" json:"ticket_id"`
	OrderID       string    `bun:"order_id,notnull" json:"order_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Serial        int       `bun:"serial" json:"serial"`
	Code          string    `bun:"code" json:"code"`
	QRCode        []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	IssuedAt      time.Time `bun:"issued_at" json:"issued_at"`
	CheckedIn     bool      `bun:"checked_in" json:"checked_in"`
	CheckedInTime time.Time `bun:"checked_in_time,nullzero" json:"checked_in_time,omitempty"`
}

type CheckInResponse struct {
	TicketID      string    `json:"ticket_id"`
	OrderID       string    `json:"order_id"`
	CheckedInTime time.Time `json:"checked_in_time"`
}
