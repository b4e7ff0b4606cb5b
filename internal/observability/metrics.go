package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered with the default registry by promauto.
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_bookings_total",
			Help: "Booking requests by outcome",
		},
		[]string{"result"},
	)

	AttemptsLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdesk_attempts_logged_total",
			Help: "Total attempts appended to the attempt log",
		},
	)

	SurgeQuotes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdesk_surge_quotes_total",
			Help: "Flights quoted with surge pricing",
		},
	)

	ChatFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdesk_chat_fallbacks_total",
			Help: "Chat replies served from the offline fallback",
		},
		[]string{"reason"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flightdesk_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flightdesk_outbox_lag_seconds",
			Help: "Age of the oldest outbox record published in the last sweep",
		},
	)

	RabbitPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdesk_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdesk_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
