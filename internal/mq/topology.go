package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeSnapshots Exchange = "simsnap.snapshots"
	ExchangeDLQ       Exchange = "simsnap.dlq"
)

// Queues.
const (
	QueueSnapshotsRequested Queue = "snapshots.requested"
	QueueSnapshotsCompleted Queue = "snapshots.completed"
	QueueDLQSnapshots       Queue = "dlq.snapshots"
)

// Routing keys.
const (
	RoutingKeyRequested    RoutingKey = "requested"
	RoutingKeyCompleted    RoutingKey = "completed"
	RoutingKeyDLQSnapshots RoutingKey = "snapshots"
)

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
	args       amqp.Table
}

// bindings — полная топология: очередь, её ключ и exchange.
func bindings() []binding {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSnapshots),
	}

	return []binding{
		// snapshots.requested — запросы, отклонённые worker'ом, уходят в DLQ
		{QueueSnapshotsRequested, RoutingKeyRequested, ExchangeSnapshots, dlqArgs},

		// snapshots.completed — итоги runs для внешних потребителей
		{QueueSnapshotsCompleted, RoutingKeyCompleted, ExchangeSnapshots, nil},

		{QueueDLQSnapshots, RoutingKeyDLQSnapshots, ExchangeDLQ, nil},
	}
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeSnapshots, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range bindings() {
			_, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				b.args,          // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  simsnap RabbitMQ topology:

    simsnap.snapshots (direct)
    ├── snapshots.requested [routing: requested]
    │       Consumer: simsnap-worker
    │       DLQ: dlq.snapshots
    └── snapshots.completed [routing: completed]
            Consumer: external

    simsnap.dlq (direct)
    └── dlq.snapshots [routing: snapshots]
            Manual processing
  `
}
