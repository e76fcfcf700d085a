package event_api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tickethub/internal/apperr"
	events "tickethub/internal/events/service"
	"tickethub/internal/events/viacep"
	"tickethub/internal/logger"
	"tickethub/internal/utils"
)

type Handler struct {
	EventService *events.EventService
	CEP          *viacep.Client
	Logger       *logger.Logger
}

func NewHandler(eventService *events.EventService, cep *viacep.Client, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, CEP: cep, Logger: log}
}

// createEventRequest is the caller-facing shape. The address is not accepted
// from the caller; it is resolved from the CEP before the service runs.
type createEventRequest struct {
	EventName string    `json:"eventName"`
	EventDate time.Time `json:"eventDate"`
	CEP       string    `json:"cep"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeAndResolve(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	event, err := h.EventService.CreateEvent(r.Context(), *req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeAndResolve(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	event, err := h.EventService.UpdateEvent(r.Context(), chi.URLParam(r, "eventID"), *req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

// GetEvent and ListEvents answer with the raw wire shapes the ticket service's
// event gateway decodes, not the response envelope.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	var canceled *bool
	if raw := r.URL.Query().Get("canceled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.WriteError(w, apperr.New(apperr.InvalidInput, raw, "canceled must be true or false"))
			return
		}
		canceled = &v
	}

	result, err := h.EventService.ListEvents(r.Context(), canceled, page, size)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.EventService.SearchEventsByName(r.Context(), r.URL.Query().Get("name"), page, size)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.CancelEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) ReactivateEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.ReactivateEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event service is up", nil))
}

func (h *Handler) decodeAndResolve(r *http.Request) (*events.EventRequest, error) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperr.New(apperr.InvalidInput, "", "invalid request body: %v", err)
	}

	addr, err := h.CEP.Resolve(r.Context(), req.CEP)
	if err != nil {
		return nil, err
	}

	return &events.EventRequest{
		EventName:    req.EventName,
		EventDate:    req.EventDate,
		CEP:          addr.CEP,
		Street:       addr.Street,
		Neighborhood: addr.Neighborhood,
		City:         addr.City,
		State:        addr.State,
	}, nil
}
