package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-marketplace/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

func (d *DB) CreateEvent(event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(context.Background())
	return err
}

// GetEventByID → fetch one event with its ticket types and batches
func (d *DB) GetEventByID(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Relation("TicketTypes").
		Relation("TicketTypes.Batches", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("seq ASC")
		}).
		Where("event.id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEvent(event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("title", "description", "date", "start_time", "location", "category",
			"price_cents", "total_tickets", "available_tickets", "status",
			"rejection_reason", "visible").
		Where("id = ?", event.ID).
		Exec(context.Background())
	return err
}

// ListFilter narrows the event listing. Statuses is resolved by the service
// from the caller's role before it reaches the query.
type ListFilter struct {
	Category    string
	Search      string
	Statuses    []string
	OrganizerID string
}

func (d *DB) ListEvents(filter ListFilter) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().Model(&events)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("(title LIKE ? OR description LIKE ? OR location LIKE ?)", pattern, pattern, pattern)
	}
	if filter.OrganizerID != "" {
		q = q.Where("organizer_id = ?", filter.OrganizerID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(filter.Statuses))
	}

	err := q.Order("date ASC").Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ---------------- TICKET TYPES ----------------

func (d *DB) CreateTicketType(ticketType *models.TicketType) error {
	_, err := d.Bun.NewInsert().Model(ticketType).Exec(context.Background())
	return err
}

// GetTicketTypeByID → fetch one ticket type with its batches in sequence order
func (d *DB) GetTicketTypeByID(id string) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := d.Bun.NewSelect().
		Model(&ticketType).
		Relation("Batches", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("seq ASC")
		}).
		Where("ticket_type.id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

func (d *DB) GetTicketTypesByEvent(eventID string) ([]*models.TicketType, error) {
	var ticketTypes []*models.TicketType
	err := d.Bun.NewSelect().
		Model(&ticketTypes).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return ticketTypes, nil
}

// ---------------- BATCHES ----------------

func (d *DB) CreateBatch(batch *models.TicketBatch) error {
	_, err := d.Bun.NewInsert().Model(batch).Exec(context.Background())
	return err
}

// NextBatchSeq → 1-based position for a batch appended to the type's sequence
func (d *DB) NextBatchSeq(ticketTypeID string) (int, error) {
	var maxSeq sql.NullInt64
	err := d.Bun.NewSelect().
		ColumnExpr("MAX(seq)").
		Table("ticket_batches").
		Where("ticket_type_id = ?", ticketTypeID).
		Scan(context.Background(), &maxSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return int(maxSeq.Int64) + 1, nil
}

func (d *DB) GetBatchesByType(ticketTypeID string) ([]*models.TicketBatch, error) {
	var batches []*models.TicketBatch
	err := d.Bun.NewSelect().
		Model(&batches).
		Where("ticket_type_id = ?", ticketTypeID).
		Order("seq ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return batches, nil
}
