package ticket_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tickethub/internal/apperr"
	"tickethub/internal/auth"
	"tickethub/internal/logger"
	"tickethub/internal/models"
	tickets "tickethub/internal/tickets/service"
	"tickethub/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req tickets.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.New(apperr.InvalidInput, "", "invalid request body: %v", err))
		return
	}

	ticket, err := h.TicketService.CreateTicket(r.Context(), principal, req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ticket)
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	ticketID := chi.URLParam(r, "ticketID")

	ticket, err := h.TicketService.CancelTicket(r.Context(), principal, ticketID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ticket)
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.TicketService.GetMyTickets(r.Context(), principal, page, size)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) TicketsByStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	status := models.TicketStatus(chi.URLParam(r, "status"))

	result, err := h.TicketService.GetTicketsByStatus(r.Context(), principal, status)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) TicketsByCPF(w http.ResponseWriter, r *http.Request) {
	cpf := chi.URLParam(r, "cpf")

	result, err := h.TicketService.GetTicketsByCPF(r.Context(), cpf)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

// CheckTicketsForEvent is the peer-facing endpoint the event service calls
// through its gateway before cancelling an event.
func (h *Handler) CheckTicketsForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	check, err := h.TicketService.CheckActiveTicketsForEvent(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket service is up", nil))
}
