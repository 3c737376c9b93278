package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"bloodlink/internal/platform/redis"
	"bloodlink/pkg/domain"
)

const availabilityCacheKey = "bloodlink:availability:by_group"

// AvailabilitySource is the ledger view the cache fronts.
type AvailabilitySource interface {
	AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error)
}

// AvailabilityCache serves per-group availability from redis with a TTL,
// falling back to the ledger on miss or redis trouble. Cache failures are
// logged and ignored: dashboards degrade to direct reads, never to errors.
type AvailabilityCache struct {
	source AvailabilitySource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewAvailabilityCache wraps the source. client may be nil, which disables
// caching entirely.
func NewAvailabilityCache(source AvailabilitySource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *AvailabilityCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AvailabilityCache{source: source, client: client, ttl: ttl, logger: logger}
}

// AvailabilityByGroup returns per-group availability, cached.
func (c *AvailabilityCache) AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, availabilityCacheKey).Bytes()
		if err == nil {
			var totals map[domain.BloodGroup]int
			if json.Unmarshal(raw, &totals) == nil {
				return totals, nil
			}
		}
	}

	totals, err := c.source.AvailabilityByGroup(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(totals); err == nil {
			if err := c.client.Set(ctx, availabilityCacheKey, raw, c.ttl).Err(); err != nil {
				c.logger.WarnContext(ctx, "failed to cache availability", "error", err)
			}
		}
	}
	return totals, nil
}

// Invalidate drops the cached availability. Callers that mutate inventory
// outside the normal flow can force the next dashboard read to hit the ledger.
func (c *AvailabilityCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, availabilityCacheKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate availability cache", "error", err)
	}
}
