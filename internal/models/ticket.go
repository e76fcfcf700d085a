package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketUsed      TicketStatus = "USED"
)

// ValidTicketStatus reports whether s names a known status.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketActive, TicketCancelled, TicketUsed:
		return true
	}
	return false
}

// Ticket holds the purchase record plus a snapshot of the event at purchase
// time. The snapshot is never re-fetched: an event renamed or cancelled later
// keeps its old data on tickets already sold.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID      string          `bun:"ticket_id,pk" json:"ticketId"`
	CustomerName  string          `bun:"customer_name" json:"customerName"`
	CPF           string          `bun:"cpf" json:"cpf"`
	CustomerEmail string          `bun:"customer_email" json:"customerEmail"`
	EventID       string          `bun:"event_id" json:"eventId"`
	EventName     string          `bun:"event_name" json:"eventName"`
	EventDateTime time.Time       `bun:"event_date_time" json:"eventDateTime"`
	Street        string          `bun:"event_street" json:"logradouro"`
	Neighborhood  string          `bun:"event_neighborhood" json:"bairro"`
	City          string          `bun:"event_city" json:"cidade"`
	State         string          `bun:"event_state" json:"uf"`
	CEP           string          `bun:"event_cep" json:"cep"`
	BRLAmount     decimal.Decimal `bun:"brl_amount" json:"brlAmount"`
	Status        TicketStatus    `bun:"status" json:"status"`
	UserID        string          `bun:"user_id" json:"userId"`
	QRCode        []byte          `bun:"qr_code" json:"-"`
	CreatedAt     time.Time       `bun:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `bun:"updated_at" json:"updatedAt"`
}
