package mongo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	mongoadapter "github.com/robertarktes/flightdesk/internal/adapters/mongo"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongoadapter.Connect(ctx, "mongodb://"+host+":"+port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(ctx) })

	db := client.Database("flightdesk_test")
	require.NoError(t, mongoadapter.EnsureIndexes(ctx, db))
	return db
}

var seedFlights = []domain.Flight{
	{ID: "AI-202", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Mumbai", BasePrice: 2500},
	{ID: "6E-501", Airline: "IndiGo", DepartureCity: "Mumbai", ArrivalCity: "Bangalore", BasePrice: 2200},
	{ID: "UK-812", Airline: "Vistara", DepartureCity: "Delhi", ArrivalCity: "Goa", BasePrice: 3000},
	{ID: "XX-1", Airline: "Test", DepartureCity: "Del.*", ArrivalCity: "Nowhere", BasePrice: 100},
}

func TestMongoAdapters(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	logger := observability.NewNopLogger()

	flights := mongoadapter.NewFlightRepository(db, logger)
	attempts := mongoadapter.NewAttemptRepository(db)
	accounts := mongoadapter.NewAccountRepository(db, logger)
	audit := mongoadapter.NewAuditLogger(db, logger)

	t.Run("seed is idempotent", func(t *testing.T) {
		n, err := flights.Seed(ctx, seedFlights, false)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		n, err = flights.Seed(ctx, seedFlights, false)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("search", func(t *testing.T) {
		all, err := flights.Search(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, all, 4)

		delhi, err := flights.Search(ctx, "del", "")
		require.NoError(t, err)
		assert.Len(t, delhi, 3)

		goa, err := flights.Search(ctx, "DELHI", "go")
		require.NoError(t, err)
		require.Len(t, goa, 1)
		assert.Equal(t, "UK-812", goa[0].ID)

		literal, err := flights.Search(ctx, "Del.*", "")
		require.NoError(t, err)
		require.Len(t, literal, 1)
		assert.Equal(t, "XX-1", literal[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		f, err := flights.Get(ctx, "6E-501")
		require.NoError(t, err)
		assert.Equal(t, int64(2200), f.BasePrice)

		_, err = flights.Get(ctx, "NOPE")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("attempts", func(t *testing.T) {
		base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, attempts.Record(ctx, domain.NewAttempt("AI-202", base.Add(time.Duration(i)*time.Hour))))
		}

		n, err := attempts.CountFor(ctx, "AI-202", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = attempts.CountFor(ctx, "AI-202", base.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = attempts.CountFor(ctx, "6E-501", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	seed := domain.Account{ID: "default", Name: "Test User", WalletBalance: 50000}

	t.Run("account defaults", func(t *testing.T) {
		acc, err := accounts.GetOrCreate(ctx, seed)
		require.NoError(t, err)
		assert.Equal(t, "Test User", acc.Name)
		assert.Equal(t, int64(50000), acc.WalletBalance)
		assert.Empty(t, acc.Bookings)

		again, err := accounts.GetOrCreate(ctx, domain.Account{ID: "default", Name: "Other", WalletBalance: 1})
		require.NoError(t, err)
		assert.Equal(t, "Test User", again.Name)
		assert.Equal(t, int64(50000), again.WalletBalance)
	})

	t.Run("debit and outbox", func(t *testing.T) {
		b := domain.Booking{
			PNR:        domain.NewPNR(),
			FlightID:   "AI-202",
			Airline:    "Air India",
			Route:      "Delhi -> Mumbai",
			AmountPaid: 5500,
			BookedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
		rec, err := domain.NewBookingCreatedRecord("default", b)
		require.NoError(t, err)

		balance, err := accounts.Debit(ctx, "default", b, rec)
		require.NoError(t, err)
		assert.Equal(t, int64(44500), balance)

		acc, err := accounts.GetOrCreate(ctx, seed)
		require.NoError(t, err)
		require.Len(t, acc.Bookings, 1)
		assert.Equal(t, b.PNR, acc.Bookings[0].PNR)
		assert.Equal(t, b.BookedAt, acc.Bookings[0].BookedAt)

		pending, err := accounts.Unpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, rec.ID, pending[0].ID)
		assert.Equal(t, rec.Payload, pending[0].Payload)

		require.NoError(t, accounts.MarkPublished(ctx, pending[0], time.Now()))
		pending, err = accounts.Unpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("insufficient funds leaves account untouched", func(t *testing.T) {
		poor := domain.Account{ID: "poor", Name: "Poor", WalletBalance: 1000}
		_, err := accounts.GetOrCreate(ctx, poor)
		require.NoError(t, err)

		b := domain.Booking{PNR: domain.NewPNR(), Airline: "IndiGo", Route: "A -> B", AmountPaid: 5500, BookedAt: time.Now()}
		rec, err := domain.NewBookingCreatedRecord("poor", b)
		require.NoError(t, err)

		_, err = accounts.Debit(ctx, "poor", b, rec)
		assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

		acc, err := accounts.GetOrCreate(ctx, poor)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), acc.WalletBalance)
		assert.Empty(t, acc.Bookings)

		_, err = accounts.Debit(ctx, "ghost", b, rec)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		race := domain.Account{ID: "race", Name: "Race", WalletBalance: 10000}
		_, err := accounts.GetOrCreate(ctx, race)
		require.NoError(t, err)

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b := domain.Booking{PNR: domain.NewPNR(), Airline: "Vistara", Route: "Delhi -> Goa", AmountPaid: 3000, BookedAt: time.Now()}
				rec, err := domain.NewBookingCreatedRecord("race", b)
				if err != nil {
					return
				}
				if _, err := accounts.Debit(ctx, "race", b, rec); err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, ok)
		acc, err := accounts.GetOrCreate(ctx, race)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), acc.WalletBalance)
		assert.Len(t, acc.Bookings, 3)
	})

	t.Run("audit log dedupes redelivery", func(t *testing.T) {
		ev := domain.BookingCreated{
			AccountID:  "default",
			PNR:        "PNR" + uuid.NewString()[:8],
			Airline:    "Air India",
			Route:      "Delhi -> Mumbai",
			AmountPaid: 2500,
			BookedAt:   time.Now(),
		}
		require.NoError(t, audit.LogBooking(ctx, ev))
		require.NoError(t, audit.LogBooking(ctx, ev))

		logs, err := audit.Bookings(ctx, "default")
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, ev.PNR, logs[0].ID)
	})
}
