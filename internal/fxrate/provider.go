package fxrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/sourcing/internal/metrics"
)

// CacheOptions configures the Redis rate cache. An empty Addr disables it.
type CacheOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewProvider builds the live feed provider and, when Redis is configured and
// reachable, wraps it in a CachedProvider. The returned func releases the cache.
func NewProvider(ctx context.Context, opts Options, cache CacheOptions, log *zap.Logger, recorder *metrics.Recorder) (Provider, func()) {
	if log == nil {
		log = zap.NewNop()
	}
	live := NewHTTPProvider(opts, log, recorder)
	if cache.Addr == "" {
		return live, func() {}
	}

	rc := NewRedisCache(cache.Addr, cache.Password, cache.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, exchange rates will not be cached", zap.String("addr", cache.Addr), zap.Error(err))
		_ = rc.Close()
		return live, func() {}
	}

	key := CacheKey(opts.URL, opts.Currency)
	return NewCachedProvider(live, rc, key, cache.TTL, log, recorder), func() { _ = rc.Close() }
}
