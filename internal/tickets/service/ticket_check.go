package tickets

import (
	"context"
	"fmt"

	"tickethub/internal/models"
)

// CheckActiveTicketsForEvent reports local ticket counts for an event. It is
// what the event service consults, through its gateway, before cancelling an
// event; no remote call happens here.
func (s *TicketService) CheckActiveTicketsForEvent(ctx context.Context, eventID string) (*models.TicketCheck, error) {
	total, active, err := s.DB.CountTicketsForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets for event %s: %w", eventID, err)
	}

	message := "No tickets found for this event"
	if total > 0 {
		message = fmt.Sprintf("Event has %d active tickets out of %d total", active, total)
	}

	return &models.TicketCheck{
		EventID:     eventID,
		HasTickets:  active > 0,
		Message:     message,
		ActiveCount: active,
		TotalCount:  total,
	}, nil
}
