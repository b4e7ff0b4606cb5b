package rateLimit_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/flightdesk/internal/adapters/redis"
	"github.com/robertarktes/flightdesk/internal/rateLimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRateLimiter_Allow(t *testing.T) {
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
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(client, time.Minute))

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := rl.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(client, time.Minute))
	ok, err := rl.Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
	assert.True(t, ok)
}
