package db

import (
	"context"

	"github.com/uptrace/bun"

	"tickethub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(&event).
		Column("event_name", "event_date", "event_cep", "event_street",
			"event_neighborhood", "event_city", "event_state", "event_canceled").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

// ExistsByNameExcluding reports whether another event already uses the name,
// compared case-insensitively. excludeID carries the event's own id on
// updates so it does not collide with itself.
func (d *DB) ExistsByNameExcluding(ctx context.Context, name, excludeID string) (bool, error) {
	q := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("lower(event_name) = lower(?)", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	return q.Exists(ctx)
}

func (d *DB) ListEvents(ctx context.Context, canceled *bool, page, size int) ([]models.Event, int, error) {
	var events []models.Event
	q := d.Bun.NewSelect().
		Model(&events).
		Order("event_name ASC").
		Limit(size).
		Offset(page * size)
	if canceled != nil {
		q = q.Where("event_canceled = ?", *canceled)
	}

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}

func (d *DB) SearchEventsByName(ctx context.Context, name string, page, size int) ([]models.Event, int, error) {
	var events []models.Event
	count, err := d.Bun.NewSelect().
		Model(&events).
		Where("lower(event_name) LIKE lower(?)", "%"+name+"%").
		Order("event_name ASC").
		Limit(size).
		Offset(page * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return events, count, nil
}
