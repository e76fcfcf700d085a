package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string    `bun:"id,pk" json:"id"`
	EventName    string    `bun:"event_name,notnull" json:"eventName"`
	EventDate    time.Time `bun:"event_date,notnull" json:"eventDate"`
	CEP          string    `bun:"event_cep" json:"cep"`
	Street       string    `bun:"event_street" json:"logradouro"`
	Neighborhood string    `bun:"event_neighborhood" json:"bairro"`
	City         string    `bun:"event_city" json:"cidade"`
	State        string    `bun:"event_state" json:"uf"`
	Canceled     bool      `bun:"event_canceled" json:"canceled"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
}
