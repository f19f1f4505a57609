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

// MessageType — тип сообщения.
type MessageType string

const (
	MessageTypeTaskStarted  MessageType = "task.started"
	MessageTypeTaskFinished MessageType = "task.finished"
	MessageTypeTaskStop     MessageType = "task.stop"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(t MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// TaskStartedPayload — задача перешла в running.
type TaskStartedPayload struct {
	TaskID      string `json:"task_id"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
}

// TaskFinishedPayload — задача получила финальный статус.
type TaskFinishedPayload struct {
	TaskID     string  `json:"task_id"`
	Status     string  `json:"status"`
	Output     string  `json:"output,omitempty"`
	Steps      int     `json:"steps"`
	HasErrors  bool    `json:"has_errors"`
	DurationMs float64 `json:"duration_ms"`
}

// StopPayload — команда остановить задачу.
type StopPayload struct {
	TaskID string `json:"task_id"`
}

// Publisher публикует события задач.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish отправляет сообщение в exchange.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, key RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Type),
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", key,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishTaskStarted публикует task.started.
func (p *Publisher) PublishTaskStarted(ctx context.Context, payload TaskStartedPayload) error {
	return p.Publish(ctx, ExchangeTasks, RoutingKeyStarted, NewMessage(MessageTypeTaskStarted, payload))
}

// PublishTaskFinished публикует task.finished.
func (p *Publisher) PublishTaskFinished(ctx context.Context, payload TaskFinishedPayload) error {
	return p.Publish(ctx, ExchangeTasks, RoutingKeyFinished, NewMessage(MessageTypeTaskFinished, payload))
}
