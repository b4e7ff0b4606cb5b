package rabbit

import (
	"context"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares a durable queue bound to the events exchange for each
// routing key.
func NewConsumer(conn *amqp.Connection, queue string, routingKeys ...string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "declare queue")
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(queue, key, EventsExchange, false, nil); err != nil {
			ch.Close()
			return nil, errors.Wrapf(err, "bind %s", key)
		}
	}
	if err := ch.Qos(16, 0, false); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "set qos")
	}
	return &Consumer{ch: ch, queue: queue}, nil
}

// Consume starts manual-ack delivery; the channel closes when ctx ends.
func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
