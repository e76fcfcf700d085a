package ticketclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"tickethub/internal/apperr"
	"tickethub/internal/logger"
	"tickethub/internal/models"
)

// Client queries the ticket service for ticket counts. Same transport
// discipline as the event gateway: one attempt, fixed timeout, typed
// Unavailable on any failure. The fail-open fallback (assume zero tickets) is
// a policy of the caller, not of this client.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func New(baseURL string, client *http.Client, log *logger.Logger) *Client {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Client{baseURL: baseURL, client: client, logger: log}
}

// CheckTickets returns the active/total ticket counts for an event.
func (c *Client) CheckTickets(ctx context.Context, eventID string) (*models.TicketCheck, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tickets/event/%s/check", c.baseURL, url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.New(apperr.Unavailable, eventID, "failed to create ticket check request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.LogGateway("ticket-service", fmt.Sprintf("ticket check failed: %v", err))
		return nil, apperr.New(apperr.Unavailable, eventID, "ticket service is currently unavailable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.LogGateway("ticket-service", fmt.Sprintf("ticket check returned status %d", resp.StatusCode))
		return nil, apperr.New(apperr.Unavailable, eventID, "ticket service is currently unavailable")
	}

	var check models.TicketCheck
	if err := json.NewDecoder(resp.Body).Decode(&check); err != nil {
		c.logger.LogGateway("ticket-service", fmt.Sprintf("failed to decode ticket check: %v", err))
		return nil, apperr.New(apperr.Unavailable, eventID, "ticket service returned an unreadable response")
	}
	return &check, nil
}

// UnavailableFallback is the conservative zero-count answer the event side
// substitutes when the gateway fails.
func UnavailableFallback(eventID string) *models.TicketCheck {
	return &models.TicketCheck{
		EventID:    eventID,
		HasTickets: false,
		Message:    "Ticket service unavailable - assuming no active tickets",
	}
}
