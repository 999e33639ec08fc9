package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"routeiq/internal/cache"
	"routeiq/internal/domain"
)

type Sink interface {
	Add(ctx context.Context, delta domain.LifetimeStats) error
	Get(ctx context.Context) (domain.LifetimeStats, error)
}

type MemorySink struct {
	mu    sync.RWMutex
	total domain.LifetimeStats
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Add(_ context.Context, delta domain.LifetimeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total.Trips += delta.Trips
	m.total.TimeSaved += delta.TimeSaved
	m.total.CO2Saved += delta.CO2Saved
	m.total.Reroutes += delta.Reroutes
	return nil
}

func (m *MemorySink) Get(context.Context) (domain.LifetimeStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total, nil
}

// RedisSink keeps each counter as its own Redis scalar so several
// instances can share totals.
type RedisSink struct {
	cache  *cache.RedisCache
	logger *slog.Logger
}

func NewRedisSink(c *cache.RedisCache, logger *slog.Logger) *RedisSink {
	return &RedisSink{
		cache:  c,
		logger: logger.With("component", "stats"),
	}
}

func (r *RedisSink) Add(ctx context.Context, delta domain.LifetimeStats) error {
	ints := []struct {
		key string
		n   int64
	}{
		{cache.KeyStatTrips, delta.Trips},
		{cache.KeyStatTimeSaved, delta.TimeSaved},
		{cache.KeyStatReroutes, delta.Reroutes},
	}
	for _, c := range ints {
		if c.n == 0 {
			continue
		}
		if _, err := r.cache.IncrBy(ctx, c.key, c.n); err != nil {
			return fmt.Errorf("incr %s: %w", c.key, err)
		}
	}

	if delta.CO2Saved != 0 {
		if _, err := r.cache.IncrByFloat(ctx, cache.KeyStatCO2Saved, delta.CO2Saved); err != nil {
			return fmt.Errorf("incr %s: %w", cache.KeyStatCO2Saved, err)
		}
	}
	return nil
}

func (r *RedisSink) Get(ctx context.Context) (domain.LifetimeStats, error) {
	vals, err := r.cache.GetStrings(ctx,
		cache.KeyStatTrips,
		cache.KeyStatTimeSaved,
		cache.KeyStatCO2Saved,
		cache.KeyStatReroutes,
	)
	if err != nil {
		return domain.LifetimeStats{}, fmt.Errorf("reading stats: %w", err)
	}

	return domain.LifetimeStats{
		Trips:     parseInt(vals[0]),
		TimeSaved: parseInt(vals[1]),
		CO2Saved:  parseFloat(vals[2]),
		Reroutes:  parseInt(vals[3]),
	}, nil
}

// Unset or corrupt counters read as zero.
func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
