package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/flightdesk/internal/adapters/rabbit"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/outbox"
	"github.com/robertarktes/flightdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required")
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "flightdesk-outbox-publisher")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	st, err := store.Open(startCtx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer st.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	defer rabbitPub.Close()

	publisher := outbox.NewPublisher(st.Outbox, rabbitPub, cfg.OutboxInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go publisher.Run(ctx)
	logger.WithField("interval", cfg.OutboxInterval.String()).Info("Outbox publisher started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-conn.NotifyClose(make(chan *amqp.Error, 1)):
		logger.WithError(err).Error("rabbitmq connection closed")
	}
	logger.Info("Shutdown outbox publisher")
}
