package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/flightdesk/internal/adapters/crdb"
	mongoadapter "github.com/robertarktes/flightdesk/internal/adapters/mongo"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/outbox"
	"github.com/robertarktes/flightdesk/internal/service/booking"
	"github.com/robertarktes/flightdesk/internal/service/flights"
)

type Seeder interface {
	Seed(ctx context.Context, flights []domain.Flight, reset bool) (int, error)
}

// Store bundles the repositories of the configured backend.
type Store struct {
	Flights  flights.FlightRepository
	Attempts flights.AttemptLog
	Accounts booking.AccountStore
	Outbox   outbox.Store
	Seeder   Seeder
	Pinger   interface{ Ping(ctx context.Context) error }

	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the backend selected by cfg.StoreBackend and prepares its
// schema or indexes.
func Open(ctx context.Context, cfg *config.Config, logger observability.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.BackendCRDB:
		pool, err := crdb.Connect(ctx, cfg.CRDBDSN)
		if err != nil {
			return nil, errors.Wrap(err, "connect crdb")
		}
		repo := crdb.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Flights:  repo,
			Attempts: repo,
			Accounts: repo,
			Outbox:   repo,
			Seeder:   repo,
			Pinger:   repo,
			close:    pool.Close,
		}, nil

	case config.BackendMongo:
		client, err := mongoadapter.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		db := client.Database(cfg.MongoDB)
		if err := mongoadapter.EnsureIndexes(ctx, db); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		flightRepo := mongoadapter.NewFlightRepository(db, logger)
		accounts := mongoadapter.NewAccountRepository(db, logger)
		return &Store{
			Flights:  flightRepo,
			Attempts: mongoadapter.NewAttemptRepository(db),
			Accounts: accounts,
			Outbox:   accounts,
			Seeder:   flightRepo,
			Pinger:   mongoadapter.NewPinger(client),
			close:    func() { client.Disconnect(context.Background()) },
		}, nil

	default:
		return nil, errors.Newf("unknown store backend %q", cfg.StoreBackend)
	}
}
