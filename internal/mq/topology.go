package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	// ExchangeTasks — topic-обменник событий и команд задач.
	ExchangeTasks Exchange = "surfer.tasks"

	// ExchangeDLQ — обменник отвергнутых команд.
	ExchangeDLQ Exchange = "surfer.dlq"
)

const (
	QueueTaskEvents  Queue = "tasks.events"
	QueueTaskControl Queue = "tasks.control"
	QueueDLQControl  Queue = "dlq.control"
)

const (
	RoutingKeyStarted  RoutingKey = "task.started"
	RoutingKeyFinished RoutingKey = "task.finished"
	RoutingKeyStop     RoutingKey = "control.stop"
	RoutingKeyDLQ      RoutingKey = "control"

	// routingKeyEvents — шаблон всех событий задач.
	routingKeyEvents RoutingKey = "task.*"
)

// SetupTopology объявляет обменники, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []struct {
			name Exchange
			kind string
		}{
			{ExchangeTasks, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeDirect},
		} {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		controlArgs := amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQ),
		}
		for _, q := range []struct {
			name Queue
			args amqp.Table
		}{
			{QueueTaskEvents, nil},
			{QueueTaskControl, controlArgs},
			{QueueDLQControl, nil},
		} {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings() {
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

type binding struct {
	queue    Queue
	key      RoutingKey
	exchange Exchange
}

func bindings() []binding {
	return []binding{
		{QueueTaskEvents, routingKeyEvents, ExchangeTasks},
		{QueueTaskControl, RoutingKeyStop, ExchangeTasks},
		{QueueDLQControl, RoutingKeyDLQ, ExchangeDLQ},
	}
}
