package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeSnapshotRequested MessageType = "snapshot.requested"
	MessageTypeSnapshotCompleted MessageType = "snapshot.completed"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SnapshotRequestedPayload — run ожидает выполнения.
type SnapshotRequestedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Simulation string    `json:"simulation"`
}

// SnapshotCompletedPayload — итог run.
type SnapshotCompletedPayload struct {
	RunID         uuid.UUID `json:"run_id"`
	Simulation    string    `json:"simulation"`
	Status        string    `json:"status"` // SUCCEEDED, NOT_READY или FAILED
	Stage         string    `json:"stage,omitempty"`
	SnapshotTaken bool      `json:"snapshot_taken"`
	Destination   string    `json:"destination,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// newMessage оборачивает payload в конверт.
func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishSnapshotRequested публикует запрос на выполнение run.
// Потребитель: simsnap-worker.
func (p *Publisher) PublishSnapshotRequested(ctx context.Context, runID uuid.UUID, simulation string) error {
	msg := newMessage(MessageTypeSnapshotRequested, SnapshotRequestedPayload{
		RunID:      runID,
		Simulation: simulation,
	})
	return p.Publish(ctx, ExchangeSnapshots, RoutingKeyRequested, msg)
}

// PublishSnapshotCompleted публикует итог run.
func (p *Publisher) PublishSnapshotCompleted(ctx context.Context, payload SnapshotCompletedPayload) error {
	msg := newMessage(MessageTypeSnapshotCompleted, payload)
	return p.Publish(ctx, ExchangeSnapshots, RoutingKeyCompleted, msg)
}
