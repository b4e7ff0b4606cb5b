package rateLimit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	redisadapter "github.com/robertarktes/flightdesk/internal/adapters/redis"
)

// RateLimiter is a fixed-window counter in redis.
type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow counts one hit for key in the current window. When redis fails the
// error is returned together with allowed=true.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) (bool, error) {
	fullKey := "rl:" + key

	pipe := rl.redis.Client().TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, period)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return true, errors.Wrap(err, "rate limit")
	}

	return incr.Val() <= int64(rate), nil
}
