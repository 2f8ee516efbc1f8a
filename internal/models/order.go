package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order lifecycle states.
const (
	OrderStatusReserved        = "reserved"
	OrderStatusConfirmed       = "confirmed"
	OrderStatusUsed            = "used"
	OrderStatusRefundRequested = "refund_requested"
	OrderStatusRefundApproved  = "refund_approved"
	OrderStatusRefundRejected  = "refund_rejected"
	OrderStatusExpired         = "expired"
	OrderStatusCancelled       = "cancelled"
)

// Refund sub-statuses kept on the order for reporting.
const (
	RefundStatusNone      = "none"
	RefundStatusRequested = "requested"
	RefundStatusApproved  = "approved"
	RefundStatusRejected  = "rejected"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID      string `bun:"order_id,pk" json:"order_id"`
	EventID      string `bun:"event_id,notnull" json:"event_id"`
	TicketTypeID string `bun:"ticket_type_id" json:"ticket_type_id,omitempty"`
	BatchID      string `bun:"batch_id" json:"batch_id,omitempty"`
	BuyerID      string `bun:"buyer_id" json:"buyer_id"`
	Quantity     int    `bun:"quantity,notnull" json:"quantity"`

	// Price snapshot captured at reservation time. Batch prices move as lots
	// roll over, so history and refunds must never re-derive from the catalog.
	UnitPriceCents  int64 `bun:"unit_price_cents" json:"unit_price_cents"`
	ServiceFeeCents int64 `bun:"service_fee_cents" json:"service_fee_cents"`
	TotalCents      int64 `bun:"total_cents" json:"total_cents"`
	HalfPrice       bool  `bun:"half_price" json:"half_price"`

	Status            string    `bun:"status,notnull" json:"status"`
	RefundStatus      string    `bun:"refund_status" json:"refund_status"`
	RefundRequestedAt time.Time `bun:"refund_requested_at,nullzero" json:"refund_requested_at,omitempty"`
	RefundAmountCents int64     `bun:"refund_amount_cents" json:"refund_amount_cents,omitempty"`

	ReservedAt  time.Time `bun:"reserved_at" json:"reserved_at"`
	ConfirmedAt time.Time `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
	CheckedInAt time.Time `bun:"checked_in_at,nullzero" json:"checked_in_at,omitempty"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}

// Buyer acquisition channels.
const (
	ChannelDesktop = "desktop"
	ChannelMobile  = "mobile"
	ChannelApp     = "app"
)

// ValidChannel reports whether c is a known acquisition channel.
func ValidChannel(c string) bool {
	switch c {
	case ChannelDesktop, ChannelMobile, ChannelApp:
		return true
	}
	return false
}

// Buyer is created at purchase time and immutable afterwards; it exists only
// for the reporting projections.
type Buyer struct {
	bun.BaseModel `bun:"table:buyers"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email" json:"email"`
	Phone     string    `bun:"phone" json:"phone"`
	Age       int       `bun:"age" json:"age,omitempty"`
	Gender    string    `bun:"gender" json:"gender,omitempty"`
	City      string    `bun:"city" json:"city,omitempty"`
	Channel   string    `bun:"channel" json:"channel"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

// ---------------- API MODELS ----------------

type ReserveRequest struct {
	Quantity  int    `json:"quantity"`
	HalfPrice bool   `json:"half_price"`
	Buyer     *Buyer `json:"buyer,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

type ReserveResponse struct {
	OrderID         string `json:"order_id"`
	EventID         string `json:"event_id"`
	TicketTypeID    string `json:"ticket_type_id,omitempty"`
	BatchID         string `json:"batch_id,omitempty"`
	Quantity        int    `json:"quantity"`
	UnitPriceCents  int64  `json:"unit_price_cents"`
	ServiceFeeCents int64  `json:"service_fee_cents"`
	TotalCents      int64  `json:"total_cents"`
	ExpiresAt       string `json:"expires_at"`
}

type RefundResolveRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

type RefundResponse struct {
	OrderID           string `json:"order_id"`
	Status            string `json:"status"`
	RefundAmountCents int64  `json:"refund_amount_cents,omitempty"`
}
