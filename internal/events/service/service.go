package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tickethub/internal/apperr"
	"tickethub/internal/events/ticketclient"
	"tickethub/internal/logger"
	"tickethub/internal/models"
)

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) error
	ExistsByNameExcluding(ctx context.Context, name, excludeID string) (bool, error)
	ListEvents(ctx context.Context, canceled *bool, page, size int) ([]models.Event, int, error)
	SearchEventsByName(ctx context.Context, name string, page, size int) ([]models.Event, int, error)
}

// TicketGateway is the event side's only view of the ticket service.
type TicketGateway interface {
	CheckTickets(ctx context.Context, eventID string) (*models.TicketCheck, error)
}

type KafkaPublisher interface {
	PublishEventCancelled(event models.Event) error
	PublishEventReactivated(event models.Event) error
}

type EventService struct {
	DB      EventDBLayer
	Tickets TicketGateway
	Kafka   KafkaPublisher
	Logger  *logger.Logger
}

func NewEventService(db EventDBLayer, tickets TicketGateway, kafka KafkaPublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Tickets: tickets, Kafka: kafka, Logger: log}
}

// EventRequest carries the caller-supplied fields for create and update. The
// address fields arrive already resolved from the CEP by the API layer.
type EventRequest struct {
	EventName    string    `json:"eventName"`
	EventDate    time.Time `json:"eventDate"`
	CEP          string    `json:"cep"`
	Street       string    `json:"logradouro"`
	Neighborhood string    `json:"bairro"`
	City         string    `json:"cidade"`
	State        string    `json:"uf"`
}

func (s *EventService) CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.EventName)
	taken, err := s.DB.ExistsByNameExcluding(ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check event name: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.Conflict, name, "an event named %q already exists", name)
	}

	event := models.Event{
		ID:           uuid.NewString(),
		EventName:    name,
		EventDate:    req.EventDate,
		CEP:          req.CEP,
		Street:       req.Street,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		Canceled:     false,
		CreatedAt:    time.Now(),
	}

	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogEvent("CREATE", event.ID, fmt.Sprintf("Event %q created for %s", event.EventName, event.EventDate.Format(time.RFC3339)))
	}

	return &event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, req EventRequest) (*models.Event, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.EventName)
	taken, err := s.DB.ExistsByNameExcluding(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check event name: %w", err)
	}
	if taken {
		return nil, apperr.New(apperr.Conflict, name, "an event named %q already exists", name)
	}

	event.EventName = name
	event.EventDate = req.EventDate
	event.CEP = req.CEP
	event.Street = req.Street
	event.Neighborhood = req.Neighborhood
	event.City = req.City
	event.State = req.State

	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogEvent("UPDATE", event.ID, fmt.Sprintf("Event %q updated", event.EventName))
	}

	return event, nil
}

// CancelEvent turns the event off after consulting the ticket service. When
// the ticket service cannot be reached the cancellation proceeds on the
// conservative zero-count fallback: an unreachable peer must not pin an event
// open forever, and active tickets keep their snapshot either way.
func (s *EventService) CancelEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Canceled {
		return nil, apperr.New(apperr.Conflict, id, "event is already cancelled")
	}

	check, err := s.Tickets.CheckTickets(ctx, id)
	if err != nil {
		if s.Logger != nil {
			s.Logger.LogGateway("ticket-service", fmt.Sprintf("Ticket check failed for event %s, proceeding with fallback: %v", id, err))
		}
		check = ticketclient.UnavailableFallback(id)
	}

	if check.ActiveCount > 0 {
		return nil, apperr.CancellationBlocked(id, check.ActiveCount)
	}

	event.Canceled = true
	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("failed to cancel event: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogEvent("CANCEL", event.ID, fmt.Sprintf("Event %q cancelled (%d total tickets, %d active)", event.EventName, check.TotalCount, check.ActiveCount))
	}
	s.publishCancelled(*event)

	return event, nil
}

// ReactivateEvent flips canceled back off. No ticket check applies here.
func (s *EventService) ReactivateEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Canceled = false
	if err := s.DB.UpdateEvent(ctx, *event); err != nil {
		return nil, fmt.Errorf("failed to reactivate event: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogEvent("REACTIVATE", event.ID, fmt.Sprintf("Event %q reactivated", event.EventName))
	}
	s.publishReactivated(*event)

	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.getEvent(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, canceled *bool, page, size int) (*models.EventPage, error) {
	page, size = normalizePage(page, size)

	events, total, err := s.DB.ListEvents(ctx, canceled, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return buildEventPage(events, total, page, size), nil
}

func (s *EventService) SearchEventsByName(ctx context.Context, name string, page, size int) (*models.EventPage, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.InvalidInput, "", "search name is required")
	}
	page, size = normalizePage(page, size)

	events, total, err := s.DB.SearchEventsByName(ctx, strings.TrimSpace(name), page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	return buildEventPage(events, total, page, size), nil
}

func (s *EventService) getEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, id, "event %s not found", id)
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return event, nil
}

func (s *EventService) publishCancelled(event models.Event) {
	if s.Kafka == nil {
		return
	}
	if err := s.Kafka.PublishEventCancelled(event); err != nil && s.Logger != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "events", fmt.Sprintf("Event %s cancellation not published: %v", event.ID, err))
	}
}

func (s *EventService) publishReactivated(event models.Event) {
	if s.Kafka == nil {
		return
	}
	if err := s.Kafka.PublishEventReactivated(event); err != nil && s.Logger != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "events", fmt.Sprintf("Event %s reactivation not published: %v", event.ID, err))
	}
}

func validateEventRequest(req EventRequest) error {
	if strings.TrimSpace(req.EventName) == "" {
		return apperr.New(apperr.InvalidInput, "", "event name is required")
	}
	if req.EventDate.IsZero() {
		return apperr.New(apperr.InvalidInput, "", "event date is required")
	}
	if req.EventDate.Before(time.Now()) {
		return apperr.New(apperr.InvalidInput, "", "event date must be in the future")
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	return page, size
}

func buildEventPage(events []models.Event, total, page, size int) *models.EventPage {
	summaries := make([]models.EventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, models.EventSummary{
			ID:           e.ID,
			EventName:    e.EventName,
			EventDate:    e.EventDate,
			CEP:          e.CEP,
			Street:       e.Street,
			Neighborhood: e.Neighborhood,
			City:         e.City,
			State:        e.State,
			Canceled:     e.Canceled,
		})
	}
	return &models.EventPage{
		Events:        summaries,
		TotalElements: int64(total),
		HasNext:       (page+1)*size < total,
	}
}
