package tickets

import (
	"context"

	"ms-marketplace/internal/models"

	"github.com/uptrace/bun"
)

// DB holds the ticket and order queries the check-in path needs.
type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ticket *models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(ticket).Exec(context.Background())
	return err
}

func (d *DB) GetTicketByID(ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) UpdateTicket(ticket *models.Ticket) error {
	_, err := d.Bun.NewUpdate().
		Model(ticket).
		Column("checked_in", "checked_in_time").
		Where("ticket_id = ?", ticket.TicketID).
		Exec(context.Background())
	return err
}

func (d *DB) GetTicketsByOrder(orderID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("serial ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

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

func (d *DB) UpdateOrderCheckIn(order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "checked_in_at").
		Where("order_id = ?", order.OrderID).
		Exec(context.Background())
	return err
}

// CountCheckedIn → attendance counters for the staff dashboard
func (d *DB) CountCheckedIn(eventID string) (checkedIn int, total int, err error) {
	ctx := context.Background()
	total, err = d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	checkedIn, err = d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("checked_in = ?", true).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return checkedIn, total, nil
}
