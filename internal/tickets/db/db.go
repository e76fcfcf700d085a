package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"tickethub/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkTicketCancelled flips the status only when the stored row is not
// already cancelled. The status guard in the WHERE clause is what keeps two
// concurrent cancellations from both reporting success: exactly one caller
// sees true.
func (d *DB) MarkTicketCancelled(ctx context.Context, ticketID string, updatedAt time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketCancelled).
		Set("updated_at = ?", updatedAt).
		Where("ticket_id = ?", ticketID).
		Where("status <> ?", models.TicketCancelled).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (d *DB) GetTicketsByUser(ctx context.Context, userID string, page, size int) ([]models.Ticket, int, error) {
	var tickets []models.Ticket
	count, err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(size).
		Offset(page * size).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tickets, count, nil
}

func (d *DB) GetTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("status = ?", status).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByCPF(ctx context.Context, cpf string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("cpf = ?", cpf).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CountTicketsForEvent returns total and active ticket counts from local
// storage only.
func (d *DB) CountTicketsForEvent(ctx context.Context, eventID string) (total, active int64, err error) {
	totalCount, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	activeCount, err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.TicketActive).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}

	return int64(totalCount), int64(activeCount), nil
}
