package models

import "time"

// EventSummary is the wire shape the event service exposes for one event.
type EventSummary struct {
	ID           string    `json:"id"`
	EventName    string    `json:"eventName"`
	EventDate    time.Time `json:"eventDate"`
	CEP          string    `json:"cep"`
	Street       string    `json:"logradouro"`
	Neighborhood string    `json:"bairro"`
	City         string    `json:"cidade"`
	State        string    `json:"uf"`
	Canceled     bool      `json:"canceled"`
}

// EventPage is one page of the event listing.
type EventPage struct {
	Events        []EventSummary `json:"events"`
	TotalElements int64          `json:"totalElements"`
	HasNext       bool           `json:"hasNext"`
}

// TicketCheck reports ticket counts for one event. The ticket service computes
// it from local storage only; the event service consumes it through the
// ticket gateway before allowing a cancellation.
type TicketCheck struct {
	EventID     string `json:"eventId"`
	HasTickets  bool   `json:"hasTickets"`
	Message     string `json:"message"`
	ActiveCount int64  `json:"activeTicketCount"`
	TotalCount  int64  `json:"totalTicketCount"`
}
