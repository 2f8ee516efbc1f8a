package db

import (
	"context"
	"time"

	"ms-marketplace/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert new order
func (d *DB) CreateOrder(order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(context.Background())
	return err
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder → update the mutable lifecycle fields; the price snapshot
// columns are deliberately not in this list.
func (d *DB) UpdateOrder(order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "refund_status", "refund_requested_at", "refund_amount_cents",
			"confirmed_at", "checked_in_at").
		Where("order_id = ?", order.OrderID).
		Exec(context.Background())
	return err
}

// ListExpiredReservations → reserved orders whose hold TTL has lapsed
func (d *DB) ListExpiredReservations(cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("status = ?", models.OrderStatusReserved).
		Where("reserved_at < ?", cutoff).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrdersByBuyer → purchase history, newest first
func (d *DB) GetOrdersByBuyer(buyerID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ---------------- BUYERS ----------------

func (d *DB) CreateBuyer(buyer *models.Buyer) error {
	_, err := d.Bun.NewInsert().Model(buyer).Exec(context.Background())
	return err
}

// ---------------- CATALOG SNAPSHOTS ----------------

// The order service reads catalog rows for pricing snapshots and the refund
// window; it never writes them.

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

func (d *DB) GetTicketTypeByID(id string) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := d.Bun.NewSelect().
		Model(&ticketType).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

func (d *DB) GetBatchByID(id string) (*models.TicketBatch, error) {
	var batch models.TicketBatch
	err := d.Bun.NewSelect().
		Model(&batch).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
