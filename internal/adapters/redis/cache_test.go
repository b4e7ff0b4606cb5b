package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/flightdesk/internal/adapters/redis"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCache_Flights(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	cache := redisadapter.NewCache(client, time.Minute)

	miss, err := cache.GetFlights(ctx, "delhi|")
	require.NoError(t, err)
	assert.Nil(t, miss)

	flights := []domain.Flight{
		{ID: "AI-202", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Mumbai", BasePrice: 2500},
		{ID: "UK-812", Airline: "Vistara", DepartureCity: "Delhi", ArrivalCity: "Goa", BasePrice: 3000},
	}
	require.NoError(t, cache.SetFlights(ctx, "delhi|", flights))

	hit, err := cache.GetFlights(ctx, "delhi|")
	require.NoError(t, err)
	assert.Equal(t, flights, hit)

	ttl, err := client.TTL(ctx, "flights:delhi|").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.SetFlights(ctx, "|goa", []domain.Flight{}))
	empty, err := cache.GetFlights(ctx, "|goa")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, cache.InvalidateFlights(ctx))
	gone, err := cache.GetFlights(ctx, "delhi|")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCache_ZeroTTLSkipsWrites(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	cache := redisadapter.NewCache(client, 0)

	require.NoError(t, cache.SetFlights(ctx, "|", []domain.Flight{{ID: "X"}}))
	got, err := cache.GetFlights(ctx, "|")
	require.NoError(t, err)
	assert.Nil(t, got)
}
