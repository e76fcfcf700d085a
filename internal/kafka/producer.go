package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"tickethub/internal/models"
)

// Producer streams ticket and event lifecycle changes to Kafka. Publishing is
// best-effort: callers log failures and carry on, the request outcome never
// depends on the broker.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

type envelope struct {
	Action    string      `json:"action"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (p *Producer) publish(action, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(envelope{
		Action:    action,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishTicketCreated(ticket models.Ticket) error {
	return p.publish(ActionTicketCreated, ticket.TicketID, ticket)
}

func (p *Producer) PublishTicketCancelled(ticket models.Ticket) error {
	return p.publish(ActionTicketCancelled, ticket.TicketID, ticket)
}

func (p *Producer) PublishEventCancelled(event models.Event) error {
	return p.publish(ActionEventCancelled, event.ID, event)
}

func (p *Producer) PublishEventReactivated(event models.Event) error {
	return p.publish(ActionEventReactivated, event.ID, event)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
