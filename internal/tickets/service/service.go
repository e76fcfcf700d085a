package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/logger"
	"tickethub/internal/models"
	"tickethub/internal/tickets/qr"
	"tickethub/internal/utils"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	MarkTicketCancelled(ctx context.Context, ticketID string, updatedAt time.Time) (bool, error)
	GetTicketsByUser(ctx context.Context, userID string, page, size int) ([]models.Ticket, int, error)
	GetTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]models.Ticket, error)
	GetTicketsByCPF(ctx context.Context, cpf string) ([]models.Ticket, error)
	CountTicketsForEvent(ctx context.Context, eventID string) (total, active int64, err error)
}

// EventGateway is the ticket side's only view of the event service.
type EventGateway interface {
	ListOpenEvents(ctx context.Context) (*models.EventPage, error)
}

type KafkaPublisher interface {
	PublishTicketCreated(ticket models.Ticket) error
	PublishTicketCancelled(ticket models.Ticket) error
}

type TicketService struct {
	DB     TicketDBLayer
	Events EventGateway
	Kafka  KafkaPublisher
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewTicketService(db TicketDBLayer, events EventGateway, kafka KafkaPublisher, qrGen *qr.Generator, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Events: events, Kafka: kafka, QR: qrGen, Logger: log}
}

type CreateTicketRequest struct {
	CustomerName  string          `json:"customerName"`
	CPF           string          `json:"cpf"`
	CustomerEmail string          `json:"customerEmail"`
	EventName     string          `json:"eventName"`
	BRLAmount     decimal.Decimal `json:"brlAmount"`
}

// CreateTicket runs the purchase protocol: CPF format check, identity match
// against the authenticated caller, remote event validation, then the local
// write with an event snapshot. Remote unavailability surfaces as a typed
// Unavailable error, distinct from the event genuinely not existing.
func (s *TicketService) CreateTicket(ctx context.Context, principal auth.Principal, req CreateTicketRequest) (*models.Ticket, error) {
	if principal.UserID == "" {
		return nil, apperr.New(apperr.Unauthorized, "", "user not authenticated")
	}

	if err := utils.ValidateCPF(req.CPF); err != nil {
		return nil, err
	}

	if utils.NormalizeCPF(req.CPF) != utils.NormalizeCPF(principal.CPF) {
		return nil, apperr.New(apperr.Forbidden, "", "the provided CPF does not match your registered CPF")
	}

	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerEmail) == "" {
		return nil, apperr.New(apperr.InvalidInput, "", "customer name and email are required")
	}
	if req.BRLAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.InvalidInput, "", "BRL amount must be greater than 0")
	}

	event, err := s.resolveOpenEvent(ctx, req.EventName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ticket := models.Ticket{
		TicketID:      uuid.NewString(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CPF:           strings.TrimSpace(req.CPF),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		EventID:       event.ID,
		EventName:     event.EventName,
		EventDateTime: event.EventDate,
		Street:        event.Street,
		Neighborhood:  event.Neighborhood,
		City:          event.City,
		State:         event.State,
		CEP:           event.CEP,
		BRLAmount:     req.BRLAmount,
		Status:        models.TicketActive,
		UserID:        principal.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if s.QR != nil {
		qrBytes, err := s.QR.GenerateEncryptedQR(ticket)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR: %w", err)
		}
		ticket.QRCode = qrBytes
	}

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		s.Logger.Error("TICKET", fmt.Sprintf("Failed to create ticket: %v", err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketCreated(ticket); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Publish error (ticket created): %v", err))
		}
	}

	s.Logger.LogTicket("CREATE", ticket.TicketID, fmt.Sprintf("Ticket issued for event %s", event.ID))
	return &ticket, nil
}

// resolveOpenEvent matches the requested name, case-insensitively, against
// the first page of the open-events listing. An event beyond the first page
// is reported as not found; that scope limitation is part of the contract.
func (s *TicketService) resolveOpenEvent(ctx context.Context, eventName string) (*models.EventSummary, error) {
	page, err := s.Events.ListOpenEvents(ctx)
	if err != nil {
		return nil, err
	}

	for i := range page.Events {
		candidate := &page.Events[i]
		if candidate.Canceled {
			continue
		}
		if strings.EqualFold(candidate.EventName, strings.TrimSpace(eventName)) {
			return candidate, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, eventName, "event '%s' not found or is cancelled", eventName)
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, ticketID, "ticket not found")
		}
		return nil, fmt.Errorf("failed to fetch ticket %s: %w", ticketID, err)
	}
	return ticket, nil
}

// CancelTicket flips an ACTIVE ticket to CANCELLED. Only the owner may do
// it, and a second cancellation is an error, not a no-op. The status guard in
// the persistence layer decides races between concurrent cancellations.
func (s *TicketService) CancelTicket(ctx context.Context, principal auth.Principal, ticketID string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.UserID != principal.UserID {
		return nil, apperr.New(apperr.Forbidden, ticketID, "you don't have permission to cancel this ticket")
	}

	if ticket.Status == models.TicketCancelled {
		return nil, apperr.New(apperr.Conflict, ticketID, "ticket is already cancelled")
	}

	now := time.Now()
	ok, err := s.DB.MarkTicketCancelled(ctx, ticketID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel ticket %s: %w", ticketID, err)
	}
	if !ok {
		// A concurrent cancel won the race between our read and write.
		return nil, apperr.New(apperr.Conflict, ticketID, "ticket is already cancelled")
	}

	ticket.Status = models.TicketCancelled
	ticket.UpdatedAt = now

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketCancelled(*ticket); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Publish error (ticket cancelled): %v", err))
		}
	}

	s.Logger.LogTicket("CANCEL", ticketID, "Ticket cancelled by owner")
	return ticket, nil
}

type TicketPage struct {
	Tickets       []models.Ticket `json:"tickets"`
	TotalElements int             `json:"totalElements"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
}

func (s *TicketService) GetMyTickets(ctx context.Context, principal auth.Principal, page, size int) (*TicketPage, error) {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}

	tickets, total, err := s.DB.GetTicketsByUser(ctx, principal.UserID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for user %s: %w", principal.UserID, err)
	}
	return &TicketPage{Tickets: tickets, TotalElements: total, Page: page, Size: size}, nil
}

// GetTicketsByStatus is privileged; only admins may sweep across all owners.
func (s *TicketService) GetTicketsByStatus(ctx context.Context, principal auth.Principal, status models.TicketStatus) ([]models.Ticket, error) {
	if !principal.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "", "admin role required")
	}
	if !models.ValidTicketStatus(status) {
		return nil, apperr.New(apperr.InvalidInput, string(status), "unknown ticket status")
	}

	tickets, err := s.DB.GetTicketsByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets by status: %w", err)
	}
	return tickets, nil
}

func (s *TicketService) GetTicketsByCPF(ctx context.Context, cpf string) ([]models.Ticket, error) {
	if err := utils.ValidateCPF(cpf); err != nil {
		return nil, err
	}

	tickets, err := s.DB.GetTicketsByCPF(ctx, strings.TrimSpace(cpf))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets by CPF: %w", err)
	}
	return tickets, nil
}
