package eventclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"tickethub/internal/apperr"
	"tickethub/internal/logger"
	"tickethub/internal/models"
)

// OpenEventsPageSize is the fixed page size used when resolving an event by
// name. Only the first page is consulted; an event further down the listing is
// reported as not found.
const OpenEventsPageSize = 20

// Client talks to the event service. Every call is a single attempt bounded
// by the injected http.Client's timeout and the request context; there is no
// retry. Transport failures surface as typed Unavailable errors, never as a
// raw error or an empty page, so callers can tell "service down" apart from
// "event does not exist".
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

// ListOpenEvents fetches the first page of non-canceled events sorted by name
// ascending.
func (c *Client) ListOpenEvents(ctx context.Context) (*models.EventPage, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/events")
	if err != nil {
		return nil, apperr.New(apperr.Unavailable, "", "invalid event service URL: %v", err)
	}
	q := u.Query()
	q.Set("page", "0")
	q.Set("size", strconv.Itoa(OpenEventsPageSize))
	q.Set("canceled", "false")
	q.Set("sort", "eventName")
	q.Set("direction", "ASC")
	u.RawQuery = q.Encode()

	var page models.EventPage
	if err := c.getJSON(ctx, u.String(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetEvent fetches a single event by id. A 404 from the peer is a typed
// NotFound; everything else that goes wrong is Unavailable.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*models.EventSummary, error) {
	endpoint := fmt.Sprintf("%s/api/v1/events/%s", c.baseURL, url.PathEscape(eventID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.New(apperr.Unavailable, eventID, "failed to create event request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.LogGateway("event-service", fmt.Sprintf("event fetch failed: %v", err))
		return nil, apperr.New(apperr.Unavailable, eventID, "event service is currently unavailable")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.NotFound, eventID, "event not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.LogGateway("event-service", fmt.Sprintf("event fetch returned status %d", resp.StatusCode))
		return nil, apperr.New(apperr.Unavailable, eventID, "event service is currently unavailable")
	}

	var event models.EventSummary
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		c.logger.LogGateway("event-service", fmt.Sprintf("failed to decode event response: %v", err))
		return nil, apperr.New(apperr.Unavailable, eventID, "event service returned an unreadable response")
	}
	return &event, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperr.New(apperr.Unavailable, "", "failed to create event request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.LogGateway("event-service", fmt.Sprintf("event listing failed: %v", err))
		return apperr.New(apperr.Unavailable, "", "event service is currently unavailable")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.LogGateway("event-service", fmt.Sprintf("event listing returned status %d", resp.StatusCode))
		return apperr.New(apperr.Unavailable, "", "event service is currently unavailable")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.LogGateway("event-service", fmt.Sprintf("failed to decode event listing: %v", err))
		return apperr.New(apperr.Unavailable, "", "event service returned an unreadable response")
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
