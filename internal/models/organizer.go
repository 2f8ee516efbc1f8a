package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Organizer request statuses share the pending/approved/rejected shape with
// event approval.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

const (
	OrganizerStatusActive    = "active"
	OrganizerStatusSuspended = "suspended"
)

type OrganizerRequest struct {
	bun.BaseModel `bun:"table:organizer_requests"`

	ID          string    `bun:"id,pk" json:"id"`
	OrgName     string    `bun:"org_name,notnull" json:"org_name"`
	TaxID       string    `bun:"tax_id" json:"tax_id"`
	Email       string    `bun:"email,notnull" json:"email"`
	Phone       string    `bun:"phone" json:"phone"`
	Description string    `bun:"description" json:"description"`
	Status      string    `bun:"status" json:"status"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`
}

// Organizer is created when an OrganizerRequest is approved. Aggregate totals
// are maintained by the reporting layer.
type Organizer struct {
	bun.BaseModel `bun:"table:organizers"`

	ID                string    `bun:"id,pk" json:"id"`
	RequestID         string    `bun:"request_id" json:"request_id"`
	Name              string    `bun:"name,notnull" json:"name"`
	Email             string    `bun:"email" json:"email"`
	Phone             string    `bun:"phone" json:"phone"`
	ApprovedAt        time.Time `bun:"approved_at" json:"approved_at"`
	TotalEvents       int       `bun:"total_events" json:"total_events"`
	TotalRevenueCents int64     `bun:"total_revenue_cents" json:"total_revenue_cents"`
	Status            string    `bun:"status" json:"status"`
}

// CommissionRule configures the platform's cut per event category. RateBps is
// in basis points (500 = 5%); MinCents floors the commission per order batch.
type CommissionRule struct {
	bun.BaseModel `bun:"table:commission_rules"`

	Category string `bun:"category,pk" json:"category"`
	RateBps  int64  `bun:"rate_bps,notnull" json:"rate_bps"`
	MinCents int64  `bun:"min_cents" json:"min_cents"`
}
