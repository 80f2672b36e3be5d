package market

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/stockbook"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a cached quote is served.
const DefaultCacheTTL = 5 * time.Minute

// RedisCache serves quotes from Redis and asks next on a miss. A Redis
// failure is logged and the call goes to next.
type RedisCache struct {
	client *redis.Client
	next   stockbook.Gateway
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// NewRedisCache caches the quotes of next in client for ttl.
func NewRedisCache(client *redis.Client, next stockbook.Gateway, ttl time.Duration, log *zap.SugaredLogger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RedisCache{client: client, next: next, ttl: ttl, log: log}
}

func priceKey(symbol string) string { return fmt.Sprintf("stockbook:price:%s", symbol) }
func yieldKey(symbol string) string { return fmt.Sprintf("stockbook:yield:%s", symbol) }

// get returns the cached decimal under key, if any.
func (c *RedisCache) get(ctx context.Context, key string) (decimal.Decimal, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return decimal.Zero, false
	}
	if err != nil {
		c.log.Warnw("quote cache unavailable", "key", key, "error", err)
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		c.log.Warnw("invalid cached quote", "key", key, "value", string(data))
		return decimal.Zero, false
	}
	return d, true
}

func (c *RedisCache) set(ctx context.Context, key string, d decimal.Decimal) {
	if err := c.client.Set(ctx, key, d.String(), c.ttl).Err(); err != nil {
		c.log.Warnw("quote not cached", "key", key, "error", err)
	}
}

func (c *RedisCache) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p, ok := c.get(ctx, priceKey(symbol)); ok {
		return p, nil
	}
	p, err := c.next.LastPrice(ctx, symbol)
	if err != nil {
		return p, err
	}
	if p.IsPositive() {
		c.set(ctx, priceKey(symbol), p)
	}
	return p, nil
}

func (c *RedisCache) DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if y, ok := c.get(ctx, yieldKey(symbol)); ok {
		return y, true
	}
	y, ok := c.next.DividendYield(ctx, symbol)
	if ok {
		c.set(ctx, yieldKey(symbol), y)
	}
	return y, ok
}

// Invalidate drops the cached quotes of symbols.
func (c *RedisCache) Invalidate(ctx context.Context, symbols ...string) error {
	if len(symbols) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(symbols))
	for _, s := range symbols {
		keys = append(keys, priceKey(s), yieldKey(s))
	}
	return c.client.Del(ctx, keys...).Err()
}
