package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/flightdesk/internal/adapters/mongo"
	"github.com/robertarktes/flightdesk/internal/adapters/rabbit"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required")
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "flightdesk-audit-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	mongoClient, err := mongoadapter.Connect(startCtx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)
	if err := mongoadapter.EnsureIndexes(startCtx, db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}
	audit := mongoadapter.NewAuditLogger(db, logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, cfg.AuditQueue, domain.EventBookingCreated)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume %s: %v", cfg.AuditQueue, err)
	}

	worker := NewAuditWorker(audit, logger)
	done := make(chan struct{})
	go func() {
		worker.Run(ctx, deliveries)
		close(done)
	}()
	logger.WithField("queue", cfg.AuditQueue).Info("Audit worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("Shutdown audit worker")
}

type BookingSink interface {
	LogBooking(ctx context.Context, ev domain.BookingCreated) error
}

type AuditWorker struct {
	sink   BookingSink
	logger observability.Logger
}

func NewAuditWorker(sink BookingSink, logger observability.Logger) *AuditWorker {
	return &AuditWorker{sink: sink, logger: logger}
}

// Run handles deliveries until ctx ends or the channel closes.
func (w *AuditWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.process(ctx, d)
		}
	}
}

func (w *AuditWorker) process(ctx context.Context, d amqp.Delivery) {
	logger := w.logger.WithFields(map[string]interface{}{
		"message_id":  d.MessageId,
		"routing_key": d.RoutingKey,
	})
	err := w.handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		if err := d.Ack(false); err != nil {
			logger.WithError(err).Error("failed to ack delivery")
		}
	case errors.Is(err, domain.ErrInvalidInput):
		logger.WithError(err).Warn("dropping malformed event")
		if err := d.Reject(false); err != nil {
			logger.WithError(err).Error("failed to reject delivery")
		}
	default:
		logger.WithError(err).Error("failed to record audit entry, requeueing")
		if err := d.Nack(false, true); err != nil {
			logger.WithError(err).Error("failed to nack delivery")
		}
	}
}

func (w *AuditWorker) handle(ctx context.Context, routingKey string, body []byte) error {
	if routingKey != domain.EventBookingCreated {
		return errors.Wrapf(domain.ErrInvalidInput, "unexpected routing key %q", routingKey)
	}
	var ev domain.BookingCreated
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Mark(errors.Wrap(err, "decode booking event"), domain.ErrInvalidInput)
	}
	if !domain.IsPNR(ev.PNR) || ev.AccountID == "" {
		return errors.Wrapf(domain.ErrInvalidInput, "incomplete booking event %q", ev.PNR)
	}
	return w.sink.LogBooking(ctx, ev)
}
