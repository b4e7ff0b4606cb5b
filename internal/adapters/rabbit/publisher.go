package rabbit

import (
	"context"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const EventsExchange = "flightdesk.events"

type Publisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewPublisher declares the durable topic exchange and puts the channel in
// confirm mode.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	err = ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "enable confirms")
	}
	return &Publisher{ch: ch, exchange: EventsExchange}, nil
}

// Publish returns once the broker has confirmed the message.
func (p *Publisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, key, false, false, msg)
	if err != nil {
		return errors.Wrapf(err, "publish %s", key)
	}
	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "confirm %s", key)
	}
	if !ok {
		return errors.Newf("broker nacked %s", key)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
