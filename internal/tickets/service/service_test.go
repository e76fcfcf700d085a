package tickets_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/logger"
	"tickethub/internal/models"
	tickets "tickethub/internal/tickets/service"
)

// MockTicketDB is a mock implementation of the TicketDBLayer interface
type MockTicketDB struct {
	mock.Mock
}

func (m *MockTicketDB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketDB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTicketDB) MarkTicketCancelled(ctx context.Context, ticketID string, updatedAt time.Time) (bool, error) {
	args := m.Called(ctx, ticketID, updatedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketDB) GetTicketsByUser(ctx context.Context, userID string, page, size int) ([]models.Ticket, int, error) {
	args := m.Called(ctx, userID, page, size)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Ticket), args.Int(1), args.Error(2)
}

func (m *MockTicketDB) GetTicketsByStatus(ctx context.Context, status models.TicketStatus) ([]models.Ticket, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDB) GetTicketsByCPF(ctx context.Context, cpf string) ([]models.Ticket, error) {
	args := m.Called(ctx, cpf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketDB) CountTicketsForEvent(ctx context.Context, eventID string) (int64, int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockEventGateway is a mock implementation of the EventGateway interface
type MockEventGateway struct {
	mock.Mock
}

func (m *MockEventGateway) ListOpenEvents(ctx context.Context) (*models.EventPage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventPage), args.Error(1)
}

var testLogger = logger.NewLogger("tickets-test")

func newService(db *MockTicketDB, gw *MockEventGateway) *tickets.TicketService {
	return tickets.NewTicketService(db, gw, nil, nil, testLogger)
}

func clientPrincipal() auth.Principal {
	return auth.Principal{UserID: "user-1", CPF: "529.982.247-25", Role: models.RoleClient}
}

func validRequest() tickets.CreateTicketRequest {
	return tickets.CreateTicketRequest{
		CustomerName:  "Maria Silva",
		CPF:           "52998224725",
		CustomerEmail: "maria@example.com",
		EventName:     "Tech Conf",
		BRLAmount:     decimal.NewFromFloat(150.50),
	}
}

func techConfPage() *models.EventPage {
	return &models.EventPage{
		Events: []models.EventSummary{
			{
				ID:           "ev-1",
				EventName:    "Tech Conf",
				EventDate:    time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC),
				CEP:          "01001000",
				Street:       "Rua das Flores",
				Neighborhood: "Centro",
				City:         "Sao Paulo",
				State:        "SP",
			},
		},
		TotalElements: 1,
	}
}

func TestCreateTicketSuccess(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).Return(techConfPage(), nil)
	mockDB.On("CreateTicket", mock.Anything, mock.AnythingOfType("models.Ticket")).Return(nil)

	ticket, err := svc.CreateTicket(context.Background(), clientPrincipal(), validRequest())

	assert.NoError(t, err)
	assert.Equal(t, models.TicketActive, ticket.Status)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.NotEmpty(t, ticket.TicketID)

	// Snapshot mirrors the matched event's current fields
	assert.Equal(t, "ev-1", ticket.EventID)
	assert.Equal(t, "Tech Conf", ticket.EventName)
	assert.Equal(t, "Rua das Flores", ticket.Street)
	assert.Equal(t, "Centro", ticket.Neighborhood)
	assert.Equal(t, "Sao Paulo", ticket.City)
	assert.Equal(t, "SP", ticket.State)
	assert.Equal(t, "01001000", ticket.CEP)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)

	mockDB.AssertExpectations(t)
	mockGW.AssertExpectations(t)
}

func TestCreateTicketMatchesEventNameCaseInsensitively(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).Return(techConfPage(), nil)
	mockDB.On("CreateTicket", mock.Anything, mock.Anything).Return(nil)

	req := validRequest()
	req.EventName = "tech conf"

	ticket, err := svc.CreateTicket(context.Background(), clientPrincipal(), req)
	assert.NoError(t, err)
	assert.Equal(t, "Tech Conf", ticket.EventName)
}

func TestCreateTicketInvalidCPF(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	req := validRequest()
	req.CPF = "111.111.111-11"

	p := clientPrincipal()
	p.CPF = "111.111.111-11"

	_, err := svc.CreateTicket(context.Background(), p, req)
	assert.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	// Nothing persisted, no remote call made
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	mockGW.AssertNotCalled(t, "ListOpenEvents", mock.Anything)
}

func TestCreateTicketCPFMismatch(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	req := validRequest()
	req.CPF = "111.444.777-35" // valid format, different person

	_, err := svc.CreateTicket(context.Background(), clientPrincipal(), req)
	assert.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestCreateTicketNormalizesCPFBeforeComparing(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).Return(techConfPage(), nil)
	mockDB.On("CreateTicket", mock.Anything, mock.Anything).Return(nil)

	// Punctuated request CPF vs bare registered CPF
	p := clientPrincipal()
	p.CPF = "52998224725"
	req := validRequest()
	req.CPF = "529.982.247-25"

	_, err := svc.CreateTicket(context.Background(), p, req)
	assert.NoError(t, err)
}

func TestCreateTicketUnauthenticated(t *testing.T) {
	svc := newService(new(MockTicketDB), new(MockEventGateway))

	_, err := svc.CreateTicket(context.Background(), auth.Principal{}, validRequest())
	assert.Error(t, err)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestCreateTicketEventServiceUnavailable(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).
		Return(nil, apperr.New(apperr.Unavailable, "", "event service is currently unavailable"))

	_, err := svc.CreateTicket(context.Background(), clientPrincipal(), validRequest())
	assert.Error(t, err)

	// Unavailability is distinct from the event not existing
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	assert.NotEqual(t, apperr.NotFound, apperr.KindOf(err))
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestCreateTicketEventNotFound(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).Return(techConfPage(), nil)

	req := validRequest()
	req.EventName = "Unknown Fest"

	_, err := svc.CreateTicket(context.Background(), clientPrincipal(), req)
	assert.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	mockDB.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

// Name resolution only consults the first page of the open-events listing.
// An event that exists beyond it is reported as not found; this pins the
// documented pagination-scope limitation.
func TestCreateTicketEventBeyondFirstPageIsNotFound(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	mockGW.On("ListOpenEvents", mock.Anything).Return(&models.EventPage{
		Events:        techConfPage().Events,
		TotalElements: 50,
		HasNext:       true, // "Zeta Fest" lives on a later page
	}, nil)

	req := validRequest()
	req.EventName = "Zeta Fest"

	_, err := svc.CreateTicket(context.Background(), clientPrincipal(), req)
	assert.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCreateTicketSkipsCanceledEvents(t *testing.T) {
	mockDB := new(MockTicketDB)
	mockGW := new(MockEventGateway)
	svc := newService(mockDB, mockGW)

	page := techConfPage()
	page.Events[0].Canceled = true
	mockGW.On("ListOpenEvents", mock.Anything).Return(page, nil)

	_, err := svc.CreateTicket(context.Background(), clientPrincipal(), validRequest())
	assert.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCancelTicketSuccess(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	stored := &models.Ticket{TicketID: "tk-1", UserID: "user-1", Status: models.TicketActive}
	mockDB.On("GetTicketByID", mock.Anything, "tk-1").Return(stored, nil)
	mockDB.On("MarkTicketCancelled", mock.Anything, "tk-1", mock.Anything).Return(true, nil)

	ticket, err := svc.CancelTicket(context.Background(), clientPrincipal(), "tk-1")
	assert.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, ticket.Status)
	assert.False(t, ticket.UpdatedAt.IsZero())
	mockDB.AssertExpectations(t)
}

func TestCancelTicketNotFound(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	mockDB.On("GetTicketByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.CancelTicket(context.Background(), clientPrincipal(), "missing")
	assert.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCancelTicketWrongOwnerForbidden(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	stored := &models.Ticket{TicketID: "tk-1", UserID: "someone-else", Status: models.TicketActive}
	mockDB.On("GetTicketByID", mock.Anything, "tk-1").Return(stored, nil)

	_, err := svc.CancelTicket(context.Background(), clientPrincipal(), "tk-1")
	assert.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	// No admin bypass in this path, and the stored ticket is untouched
	mockDB.AssertNotCalled(t, "MarkTicketCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelTicketAlreadyCancelled(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	stored := &models.Ticket{TicketID: "tk-1", UserID: "user-1", Status: models.TicketCancelled}
	mockDB.On("GetTicketByID", mock.Anything, "tk-1").Return(stored, nil)

	_, err := svc.CancelTicket(context.Background(), clientPrincipal(), "tk-1")
	assert.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	mockDB.AssertNotCalled(t, "MarkTicketCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelTicketLosesRaceToConcurrentCancel(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	// Read sees ACTIVE, but another cancel lands before our write
	stored := &models.Ticket{TicketID: "tk-1", UserID: "user-1", Status: models.TicketActive}
	mockDB.On("GetTicketByID", mock.Anything, "tk-1").Return(stored, nil)
	mockDB.On("MarkTicketCancelled", mock.Anything, "tk-1", mock.Anything).Return(false, nil)

	_, err := svc.CancelTicket(context.Background(), clientPrincipal(), "tk-1")
	assert.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestGetTicketsByStatusRequiresAdmin(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	_, err := svc.GetTicketsByStatus(context.Background(), clientPrincipal(), models.TicketActive)
	assert.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	admin := auth.Principal{UserID: "admin-1", CPF: "52998224725", Role: models.RoleAdmin}
	mockDB.On("GetTicketsByStatus", mock.Anything, models.TicketActive).Return([]models.Ticket{}, nil)

	_, err = svc.GetTicketsByStatus(context.Background(), admin, models.TicketActive)
	assert.NoError(t, err)
}

func TestGetTicketsByStatusRejectsUnknownStatus(t *testing.T) {
	svc := newService(new(MockTicketDB), new(MockEventGateway))

	admin := auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.GetTicketsByStatus(context.Background(), admin, models.TicketStatus("BOGUS"))
	assert.Error(t, err)
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestGetMyTicketsPaging(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	mockDB.On("GetTicketsByUser", mock.Anything, "user-1", 0, 10).
		Return([]models.Ticket{{TicketID: "tk-1"}}, 1, nil)

	page, err := svc.GetMyTickets(context.Background(), clientPrincipal(), -1, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)
	assert.Len(t, page.Tickets, 1)
}

func TestGetMyTicketsDBError(t *testing.T) {
	mockDB := new(MockTicketDB)
	svc := newService(mockDB, new(MockEventGateway))

	mockDB.On("GetTicketsByUser", mock.Anything, "user-1", 0, 10).
		Return(nil, 0, errors.New("connection reset"))

	_, err := svc.GetMyTickets(context.Background(), clientPrincipal(), 0, 10)
	assert.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}
