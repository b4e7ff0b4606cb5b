package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/flightdesk/internal/domain"
)

const flightsKeyPrefix = "flights:"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache caches flight search results for ttl; a non-positive ttl
// disables writes.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

type cachedFlight struct {
	ID            string `json:"id"`
	Airline       string `json:"airline"`
	DepartureCity string `json:"departure_city"`
	ArrivalCity   string `json:"arrival_city"`
	BasePrice     int64  `json:"base_price"`
}

// GetFlights returns nil, nil on a miss.
func (c *Cache) GetFlights(ctx context.Context, key string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get flights")
	}

	var cached []cachedFlight
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, errors.Wrap(err, "decode cached flights")
	}
	flights := make([]domain.Flight, 0, len(cached))
	for _, f := range cached {
		flights = append(flights, domain.Flight(f))
	}
	return flights, nil
}

func (c *Cache) SetFlights(ctx context.Context, key string, flights []domain.Flight) error {
	if c.ttl <= 0 {
		return nil
	}
	cached := make([]cachedFlight, 0, len(flights))
	for _, f := range flights {
		cached = append(cached, cachedFlight(f))
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return errors.Wrap(err, "encode flights")
	}
	return errors.Wrap(c.client.Set(ctx, flightsKeyPrefix+key, data, c.ttl).Err(), "redis set flights")
}

// InvalidateFlights drops every cached search, used after reseeding.
func (c *Cache) InvalidateFlights(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, flightsKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "scan flight keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "delete flight keys")
}
