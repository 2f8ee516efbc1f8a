package db

import (
	"context"
	"database/sql"

	"ms-marketplace/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// BuyerRow is the buyers projection for one event: one row per paid order,
// buyer profile joined onto the purchase snapshot.
type BuyerRow struct {
	OrderID    string `bun:"order_id" json:"order_id"`
	BuyerName  string `bun:"buyer_name" json:"buyer_name"`
	Email      string `bun:"email" json:"email"`
	Phone      string `bun:"phone" json:"phone"`
	Channel    string `bun:"channel" json:"channel"`
	Quantity   int    `bun:"quantity" json:"quantity"`
	TotalCents int64  `bun:"total_cents" json:"total_cents"`
	Status     string `bun:"status" json:"status"`
	HalfPrice  bool   `bun:"half_price" json:"half_price"`
}

// ListBuyers returns every order that currently holds money for the event,
// newest purchase first.
func (d *DB) ListBuyers(eventID string) ([]BuyerRow, error) {
	var rows []BuyerRow
	err := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("o.order_id").
		ColumnExpr("b.name AS buyer_name").
		ColumnExpr("b.email").
		ColumnExpr("b.phone").
		ColumnExpr("b.channel").
		ColumnExpr("o.quantity").
		ColumnExpr("o.total_cents").
		ColumnExpr("o.status").
		ColumnExpr("o.half_price").
		Join("JOIN buyers AS b ON b.id = o.buyer_id").
		Where("o.event_id = ?", eventID).
		Where("o.status IN (?)", bun.In([]string{
			models.OrderStatusConfirmed,
			models.OrderStatusUsed,
			models.OrderStatusRefundRequested,
			models.OrderStatusRefundRejected,
		})).
		Order("o.created_at DESC").
		Scan(context.Background(), &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SalesTotals aggregates the paid-order snapshots for one event.
type SalesTotals struct {
	TicketsSold   int   `bun:"tickets_sold"`
	Orders        int   `bun:"orders"`
	GrossCents    int64 `bun:"gross_cents"`
	SubtotalCents int64 `bun:"subtotal_cents"`
	FeeCents      int64 `bun:"fee_cents"`
}

func (d *DB) SalesTotalsByEvent(eventID string) (*SalesTotals, error) {
	var totals SalesTotals
	err := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("COALESCE(SUM(o.quantity), 0) AS tickets_sold").
		ColumnExpr("COUNT(*) AS orders").
		ColumnExpr("COALESCE(SUM(o.total_cents), 0) AS gross_cents").
		ColumnExpr("COALESCE(SUM(o.unit_price_cents * o.quantity), 0) AS subtotal_cents").
		ColumnExpr("COALESCE(SUM(o.service_fee_cents), 0) AS fee_cents").
		Where("o.event_id = ?", eventID).
		Where("o.status IN (?)", bun.In([]string{
			models.OrderStatusConfirmed,
			models.OrderStatusUsed,
			models.OrderStatusRefundRequested,
			models.OrderStatusRefundRejected,
		})).
		Scan(context.Background(), &totals)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (d *DB) RefundedCentsByEvent(eventID string) (int64, error) {
	var refunded sql.NullInt64
	err := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("SUM(o.refund_amount_cents)").
		Where("o.event_id = ?", eventID).
		Where("o.status = ?", models.OrderStatusRefundApproved).
		Scan(context.Background(), &refunded)
	if err != nil {
		return 0, err
	}
	return refunded.Int64, nil
}

func (d *DB) CountCheckedIn(eventID string) (int, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ? AND checked_in = ?", eventID, true).
		Count(context.Background())
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (d *DB) GetEventByID(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetEventsByOrganizer(organizerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("organizer_id = ?", organizerID).
		Order("date ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetOrganizerByID(id string) (*models.Organizer, error) {
	var organizer models.Organizer
	err := d.Bun.NewSelect().
		Model(&organizer).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &organizer, nil
}

func (d *DB) UpdateOrganizerTotals(organizer *models.Organizer) error {
	_, err := d.Bun.NewUpdate().
		Model(organizer).
		Column("total_events", "total_revenue_cents").
		Where("id = ?", organizer.ID).
		Exec(context.Background())
	return err
}

// GetCommissionRule returns nil (no error) when the category has no override;
// the pricing engine then falls back to the default rate.
func (d *DB) GetCommissionRule(category string) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	err := d.Bun.NewSelect().
		Model(&rule).
		Where("category = ?", category).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}
