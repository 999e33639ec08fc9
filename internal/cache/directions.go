package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bluele/gcache"

	"routeiq/internal/domain"
)

type Gateway interface {
	GetLeg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error)
}

type cachedLeg struct {
	Leg *domain.Leg     `json:"leg"`
	Raw json.RawMessage `json:"raw,omitempty"`
}

// DirectionsCache memoizes successful directions lookups in a local LRU
// and, when a RedisCache is given, in Redis shared across instances.
// Failures and empty results are never cached.
type DirectionsCache struct {
	next   Gateway
	local  gcache.Cache
	redis  *RedisCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewDirectionsCache(next Gateway, size int, ttl time.Duration, redis *RedisCache, logger *slog.Logger) *DirectionsCache {
	if size <= 0 {
		size = 1024
	}
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &DirectionsCache{
		next:   next,
		local:  builder.Build(),
		redis:  redis,
		ttl:    ttl,
		logger: logger.With("component", "directions_cache"),
	}
}

func (c *DirectionsCache) GetLeg(ctx context.Context, origin, destination domain.Place, mode domain.TravelMode) (*domain.Leg, error) {
	key := KeyDirections(origin, destination, mode)

	if v, err := c.local.Get(key); err == nil {
		return v.(*domain.Leg), nil
	}

	if leg, ok := c.fromRedis(ctx, key); ok {
		_ = c.local.Set(key, leg)
		return leg, nil
	}

	leg, err := c.next.GetLeg(ctx, origin, destination, mode)
	if err != nil || leg == nil {
		return leg, err
	}

	_ = c.local.Set(key, leg)
	if c.redis != nil {
		entry := cachedLeg{Leg: leg, Raw: leg.Raw}
		if err := c.redis.SetJSONCompressed(ctx, key, entry, c.ttl); err != nil {
			c.logger.Warn("failed to store leg", "key", key, "error", err)
		}
	}
	return leg, nil
}

func (c *DirectionsCache) fromRedis(ctx context.Context, key string) (*domain.Leg, bool) {
	if c.redis == nil {
		return nil, false
	}
	var entry cachedLeg
	found, err := c.redis.GetJSONCompressed(ctx, key, &entry)
	if err != nil || !found || entry.Leg == nil {
		return nil, false
	}
	entry.Leg.Raw = entry.Raw
	return entry.Leg, true
}

// Len is the number of legs held locally
func (c *DirectionsCache) Len() int {
	return c.local.Len(true)
}
