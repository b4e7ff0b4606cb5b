package flights

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const countConcurrency = 8

type FlightUseCase interface {
	Search(ctx context.Context, query SearchQuery) ([]domain.PricedFlight, error)
	Quote(ctx context.Context, flightID string) (*domain.PricedFlight, error)
	LogAttempt(ctx context.Context, flightID string) error
}

type FlightRepository interface {
	Search(ctx context.Context, from, to string) ([]domain.Flight, error)
	Get(ctx context.Context, id string) (*domain.Flight, error)
}

type AttemptLog interface {
	Record(ctx context.Context, attempt domain.Attempt) error
	CountFor(ctx context.Context, flightID string, since time.Time) (int64, error)
}

// FlightCache caches raw catalog search results; surge annotation is always
// computed fresh.
type FlightCache interface {
	GetFlights(ctx context.Context, key string) ([]domain.Flight, error)
	SetFlights(ctx context.Context, key string, flights []domain.Flight) error
}

type SearchQuery struct {
	From string
	To   string
}

func (q SearchQuery) cacheKey() string {
	return strings.ToLower(strings.TrimSpace(q.From)) + "|" + strings.ToLower(strings.TrimSpace(q.To))
}

type FlightService struct {
	repo     FlightRepository
	attempts AttemptLog
	cache    FlightCache
	window   time.Duration
	now      func() time.Time
	logger   observability.Logger
}

type FlightServiceOption func(*FlightService)

func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

// WithSurgeWindow limits surge evaluation to attempts newer than now-window.
// Zero keeps every attempt in play.
func WithSurgeWindow(window time.Duration) FlightServiceOption {
	return func(s *FlightService) {
		s.window = window
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo FlightRepository, attempts AttemptLog, logger observability.Logger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:     repo,
		attempts: attempts,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Search(ctx context.Context, query SearchQuery) ([]domain.PricedFlight, error) {
	ctx, span := otel.Tracer("flights").Start(ctx, "flights.Search")
	defer span.End()
	span.SetAttributes(attribute.String("flights.from", query.From), attribute.String("flights.to", query.To))

	flights, err := s.catalog(ctx, query)
	if err != nil {
		return nil, err
	}

	since := s.since()
	priced := make([]domain.PricedFlight, len(flights))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i, f := range flights {
		g.Go(func() error {
			count, err := s.attempts.CountFor(gctx, f.ID, since)
			if err != nil {
				return errors.Wrapf(err, "count attempts for %s", f.ID)
			}
			priced[i] = s.price(f, count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return priced, nil
}

func (s *FlightService) Quote(ctx context.Context, flightID string) (*domain.PricedFlight, error) {
	f, err := s.repo.Get(ctx, flightID)
	if err != nil {
		return nil, err
	}
	count, err := s.attempts.CountFor(ctx, f.ID, s.since())
	if err != nil {
		return nil, errors.Wrapf(err, "count attempts for %s", f.ID)
	}
	priced := s.price(*f, count)
	return &priced, nil
}

// LogAttempt appends an attempt for a known flight.
func (s *FlightService) LogAttempt(ctx context.Context, flightID string) error {
	if _, err := s.repo.Get(ctx, flightID); err != nil {
		return err
	}
	if err := s.attempts.Record(ctx, domain.NewAttempt(flightID, s.now())); err != nil {
		return errors.Wrapf(err, "record attempt for %s", flightID)
	}
	observability.AttemptsLogged.Inc()
	return nil
}

func (s *FlightService) catalog(ctx context.Context, query SearchQuery) ([]domain.Flight, error) {
	key := query.cacheKey()
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx, key)
		if err != nil {
			s.logger.WithError(err).Warn("flight cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.Search(ctx, strings.TrimSpace(query.From), strings.TrimSpace(query.To))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, key, flights); err != nil {
			s.logger.WithError(err).Warn("flight cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) since() time.Time {
	if s.window <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.window)
}

func (s *FlightService) price(f domain.Flight, attempts int64) domain.PricedFlight {
	q := domain.EvaluateSurge(f.BasePrice, attempts)
	if q.Surge {
		observability.SurgeQuotes.Inc()
	}
	return domain.PricedFlight{Flight: f, Quote: q}
}

var _ FlightUseCase = (*FlightService)(nil)
