package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
)

const defaultBatchSize = 50

// Store is the durable side of the outbox.
type Store interface {
	Unpublished(ctx context.Context, limit int) ([]domain.OutboxRecord, error)
	MarkPublished(ctx context.Context, rec domain.OutboxRecord, publishedAt time.Time) error
}

type Broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// Publisher relays stored records to the broker. Delivery is at least once;
// consumers dedupe on MessageId.
type Publisher struct {
	store     Store
	broker    Broker
	interval  time.Duration
	batchSize int
	now       func() time.Time
	logger    observability.Logger
}

func NewPublisher(store Store, broker Broker, interval time.Duration, logger observability.Logger) *Publisher {
	return &Publisher{
		store:     store,
		broker:    broker,
		interval:  interval,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Drain(ctx); err != nil && ctx.Err() == nil {
				p.logger.WithError(err).Warn("outbox sweep failed")
			}
		}
	}
}

// Drain publishes one batch in order and returns how many records were
// published. It stops at the first broker failure so later records are not
// delivered ahead of it.
func (p *Publisher) Drain(ctx context.Context) (int, error) {
	records, err := p.store.Unpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		observability.OutboxLag.Set(0)
		return 0, nil
	}
	observability.OutboxLag.Set(p.now().Sub(records[0].CreatedAt).Seconds())

	published := 0
	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:    rec.DedupeKey,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    rec.CreatedAt,
			Type:         rec.EventType,
			Body:         rec.Payload,
		}
		if err := p.broker.Publish(ctx, rec.EventType, msg); err != nil {
			observability.RabbitPublishRetries.Inc()
			return published, err
		}
		if err := p.store.MarkPublished(ctx, rec, p.now()); err != nil {
			// the record will be published again on the next sweep
			return published, err
		}
		published++
	}
	p.logger.WithField("count", published).Debug("outbox records published")
	return published, nil
}
