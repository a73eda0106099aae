package fxrate

import (
	"context"
	"errors"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/metrics"
	"github.com/Simplici0/sourcing/internal/pricing"
)

// Cache stores rates under a key for a limited time.
type Cache interface {
	Get(ctx context.Context, key string) (pricing.Rate, bool, error)
	Set(ctx context.Context, key string, rate pricing.Rate, ttl time.Duration) error
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(_ context.Context, _ string) (pricing.Rate, bool, error) {
	return 0, false, nil
}

func (NoopCache) Set(_ context.Context, _ string, _ pricing.Rate, _ time.Duration) error {
	return nil
}

// RedisCache keeps rates in Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 500 * time.Millisecond,
		MaxRetries:  1,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) (pricing.Rate, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return pricing.Rate(f), true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, rate pricing.Rate, ttl time.Duration) error {
	return c.client.Set(ctx, key, strconv.FormatFloat(float64(rate), 'g', -1, 64), ttl).Err()
}

// CachedProvider serves live rates from a cache until they expire.
// Fallback rates are never cached.
type CachedProvider struct {
	inner    Provider
	cache    Cache
	key      string
	ttl      time.Duration
	log      *zap.Logger
	recorder *metrics.Recorder
}

func NewCachedProvider(inner Provider, cache Cache, key string, ttl time.Duration, log *zap.Logger, recorder *metrics.Recorder) *CachedProvider {
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedProvider{inner: inner, cache: cache, key: key, ttl: ttl, log: log, recorder: recorder}
}

func (p *CachedProvider) Current(ctx context.Context) Quote {
	rate, ok, err := p.cache.Get(ctx, p.key)
	if err != nil {
		p.log.Warn("exchange rate cache read failed", zap.String("key", p.key), zap.Error(err))
	}
	if ok && rate > 0 {
		p.recorder.RecordRateSource(string(SourceCache))
		return Quote{Rate: rate, Source: SourceCache, FetchedAt: time.Now().UTC()}
	}

	q := p.inner.Current(ctx)
	if q.Source == SourceLive {
		if err := p.cache.Set(ctx, p.key, q.Rate, p.ttl); err != nil {
			p.log.Warn("exchange rate cache write failed", zap.String("key", p.key), zap.Error(err))
		}
	}
	return q
}

// CacheKey names the cache entry for a feed URL and currency.
func CacheKey(url, currency string) string {
	return "fxrate:" + currency + ":" + url
}
