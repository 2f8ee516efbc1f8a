package db

import (
	"context"

	"ms-marketplace/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORGANIZER REQUESTS ----------------

func (d *DB) CreateOrganizerRequest(request *models.OrganizerRequest) error {
	_, err := d.Bun.NewInsert().Model(request).Exec(context.Background())
	return err
}

func (d *DB) GetOrganizerRequestByID(id string) (*models.OrganizerRequest, error) {
	var request models.OrganizerRequest
	err := d.Bun.NewSelect().
		Model(&request).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (d *DB) UpdateOrganizerRequest(request *models.OrganizerRequest) error {
	_, err := d.Bun.NewUpdate().
		Model(request).
		Column("status").
		Where("id = ?", request.ID).
		Exec(context.Background())
	return err
}

func (d *DB) ListOrganizerRequests(status string) ([]models.OrganizerRequest, error) {
	var requests []models.OrganizerRequest
	q := d.Bun.NewSelect().Model(&requests)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at ASC").Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ---------------- ORGANIZERS ----------------

func (d *DB) CreateOrganizer(organizer *models.Organizer) error {
	_, err := d.Bun.NewInsert().Model(organizer).Exec(context.Background())
	return err
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

func (d *DB) UpdateOrganizerStatus(organizer *models.Organizer) error {
	_, err := d.Bun.NewUpdate().
		Model(organizer).
		Column("status").
		Where("id = ?", organizer.ID).
		Exec(context.Background())
	return err
}

// ---------------- EVENTS ----------------

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

func (d *DB) UpdateEventApproval(event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("status", "rejection_reason").
		Where("id = ?", event.ID).
		Exec(context.Background())
	return err
}
