package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts hits per fixed window. The window start is appended to the
// caller's key, so keys only need to name what is being limited.
type RateLimiter struct {
	c      *redis.Client
	prefix string
	now    func() time.Time
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c:      redis.NewClient(&redis.Options{Addr: addr}),
		prefix: keyPrefix,
		now:    time.Now,
	}
}

func (rl *RateLimiter) windowKey(key string, window time.Duration) string {
	start := rl.now().UTC().Truncate(window).Unix()
	return rl.prefix + key + ":" + strconv.FormatInt(start, 10)
}

// Allow увеличивает счётчик текущего окна; TTL с запасом, чтобы ключ не жил дольше двух окон.
// Возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	if window <= 0 {
		window = time.Minute
	}
	k := rl.windowKey(key, window)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window+10*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
