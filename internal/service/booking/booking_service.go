package booking

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*BookResult, error)
	Account(ctx context.Context) (*domain.Account, error)
}

// AccountStore persists the wallet and its bookings.
type AccountStore interface {
	GetOrCreate(ctx context.Context, seed domain.Account) (*domain.Account, error)
	// Debit must decrement the balance, append the booking and store the
	// outbox record in one atomic write, and only when balance >= AmountPaid.
	// It returns the balance after the debit.
	Debit(ctx context.Context, accountID string, booking domain.Booking, rec domain.OutboxRecord) (int64, error)
}

type Quoter interface {
	Quote(ctx context.Context, flightID string) (*domain.PricedFlight, error)
}

type BookInput struct {
	FlightID string
	Airline  string
	Route    string
	Price    int64
}

type BookResult struct {
	Booking    domain.Booking
	NewBalance int64
}

type BookingService struct {
	accounts AccountStore
	quoter   Quoter
	seed     domain.Account
	now      func() time.Time
	newPNR   func() string
	logger   observability.Logger

	strictFares bool
}

type BookingServiceOption func(*BookingService)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithPNRGenerator(gen func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newPNR = gen
	}
}

// WithFareCheck rejects bookings whose price differs from the flight's
// current quote with a *domain.FareChangedError. Off by default: the booked
// price is whatever the caller was shown.
func WithFareCheck() BookingServiceOption {
	return func(s *BookingService) {
		s.strictFares = true
	}
}

// NewBookingService books against the account described by seed, creating
// it with seed's name and balance on first use.
func NewBookingService(accounts AccountStore, quoter Quoter, seed domain.Account, logger observability.Logger, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		accounts: accounts,
		quoter:   quoter,
		seed:     seed,
		now:      time.Now,
		newPNR:   domain.NewPNR,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) Account(ctx context.Context) (*domain.Account, error) {
	return s.accounts.GetOrCreate(ctx, s.seed)
}

func (s *BookingService) Book(ctx context.Context, input BookInput) (*BookResult, error) {
	ctx, span := otel.Tracer("booking").Start(ctx, "booking.Book")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.flight_id", input.FlightID),
		attribute.Int64("booking.price", input.Price),
	)

	result, err := s.book(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.BookingsTotal.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.pnr", result.Booking.PNR))
	observability.BookingsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *BookingService) book(ctx context.Context, input BookInput) (*BookResult, error) {
	input.FlightID = strings.TrimSpace(input.FlightID)
	input.Airline = strings.TrimSpace(input.Airline)
	input.Route = strings.TrimSpace(input.Route)

	if input.Price <= 0 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "price must be positive")
	}

	if input.FlightID != "" {
		if err := s.lookupFlight(ctx, &input); err != nil {
			return nil, err
		}
	}
	if input.Airline == "" || input.Route == "" {
		return nil, errors.Wrap(domain.ErrInvalidInput, "airline and route are required")
	}

	account, err := s.accounts.GetOrCreate(ctx, s.seed)
	if err != nil {
		return nil, errors.Wrap(err, "load account")
	}

	b := domain.Booking{
		PNR:        s.newPNR(),
		FlightID:   input.FlightID,
		Airline:    input.Airline,
		Route:      input.Route,
		AmountPaid: input.Price,
		BookedAt:   s.now().UTC(),
	}
	rec, err := domain.NewBookingCreatedRecord(account.ID, b)
	if err != nil {
		return nil, errors.Wrap(err, "build booking event")
	}

	balance, err := s.accounts.Debit(ctx, account.ID, b, rec)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			s.logger.WithFields(map[string]interface{}{
				"account_id": account.ID,
				"price":      input.Price,
			}).Info("booking rejected: insufficient balance")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id":  account.ID,
		"pnr":         b.PNR,
		"amount_paid": b.AmountPaid,
		"new_balance": balance,
	}).Info("booking committed")
	return &BookResult{Booking: b, NewBalance: balance}, nil
}

// lookupFlight fills in airline and route from the catalog when the caller
// left them out. The flight id is booking metadata: an unknown or unreachable
// flight only matters when the fields it would supply are missing. With the
// fare check enabled the price must also match the current quote.
func (s *BookingService) lookupFlight(ctx context.Context, input *BookInput) error {
	if !s.strictFares && input.Airline != "" && input.Route != "" {
		return nil
	}

	current, err := s.quoter.Quote(ctx, input.FlightID)
	if err != nil {
		if s.strictFares {
			return err
		}
		s.logger.WithError(err).WithField("flight_id", input.FlightID).Warn("flight lookup for booking failed")
		return nil
	}
	if s.strictFares && current.Quote.Price != input.Price {
		return &domain.FareChangedError{
			FlightID: input.FlightID,
			Quoted:   input.Price,
			Current:  current.Quote.Price,
		}
	}
	if input.Airline == "" {
		input.Airline = current.Airline
	}
	if input.Route == "" {
		input.Route = current.Route()
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrFareChanged):
		return "fare_changed"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return "invalid"
	default:
		return "error"
	}
}

var _ BookingUseCase = (*BookingService)(nil)
