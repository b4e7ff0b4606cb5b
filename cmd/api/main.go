package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/flightdesk/internal/adapters/gemini"
	redisadapter "github.com/robertarktes/flightdesk/internal/adapters/redis"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/domain"
	httphandler "github.com/robertarktes/flightdesk/internal/http"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/rateLimit"
	"github.com/robertarktes/flightdesk/internal/seed"
	"github.com/robertarktes/flightdesk/internal/service/assistant"
	"github.com/robertarktes/flightdesk/internal/service/booking"
	"github.com/robertarktes/flightdesk/internal/service/flights"
	"github.com/robertarktes/flightdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg, "flightdesk-api")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	st, err := store.Open(startCtx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer st.Close()

	seeded, err := st.Seeder.Seed(startCtx, seed.DefaultFlights(), false)
	if err != nil {
		log.Fatalf("failed to seed flights: %v", err)
	}
	if seeded > 0 {
		logger.WithField("count", seeded).Info("flight catalog seeded")
	}

	account := domain.Account{
		ID:            cfg.DefaultAccountID,
		Name:          cfg.DefaultAccountName,
		WalletBalance: cfg.DefaultBalance,
	}
	if _, err := st.Accounts.GetOrCreate(startCtx, account); err != nil {
		log.Fatalf("failed to provision default account: %v", err)
	}

	flightOpts := []flights.FlightServiceOption{flights.WithSurgeWindow(cfg.SurgeWindow)}
	var limiter httphandler.Limiter
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(startCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, cache and rate limit will fail open")
		}
		redisCache := redisadapter.NewCache(redisClient, cfg.FlightsCacheTTL)
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
		limiter = rateLimit.NewRateLimiter(redisCache)
	} else {
		logger.Info("REDIS_ADDR not set, flight cache and rate limiting disabled")
	}

	flightService := flights.NewFlightService(st.Flights, st.Attempts, logger, flightOpts...)
	var bookingOpts []booking.BookingServiceOption
	if cfg.StrictFares {
		bookingOpts = append(bookingOpts, booking.WithFareCheck())
	}
	bookingService := booking.NewBookingService(st.Accounts, flightService, account, logger, bookingOpts...)

	var generator assistant.Generator
	if cfg.ChatEnabled() {
		generator = gemini.NewClient(&http.Client{Timeout: cfg.ChatTimeout}, cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		logger.Info("GEMINI_API_KEY not set, chat serves the offline reply")
	}
	chat := assistant.NewAssistant(generator, flightService, cfg.ChatTimeout, logger)

	handlers := httphandler.NewHandlers(flightService, bookingService, chat, st.Pinger)

	r := httphandler.SetupRouter(handlers, logger, limiter, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(map[string]interface{}{
			"addr":    cfg.HTTPAddr,
			"backend": cfg.StoreBackend,
		}).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
