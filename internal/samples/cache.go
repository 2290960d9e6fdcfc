package samples

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/launch-advisor/internal/engine"
	"github.com/smukkama/launch-advisor/internal/logger"
	"github.com/smukkama/launch-advisor/internal/metrics"
	"github.com/smukkama/launch-advisor/internal/weather"
)

// CachedSource is a read-through Redis cache in front of a sample
// source. Latest-sample lookups are cached with a short TTL so every
// scheduled evaluation does not hit Postgres per station; window
// queries pass through uncached. Staleness is judged from the sample's
// own timestamp, so serving a cached copy never masks an old reading.
type CachedSource struct {
	redis *redis.Client
	next  engine.SampleSource
	ttl   time.Duration
}

// NewCachedSource creates a caching sample source backed by next.
func NewCachedSource(redisClient *redis.Client, next engine.SampleSource, ttl time.Duration) *CachedSource {
	return &CachedSource{redis: redisClient, next: next, ttl: ttl}
}

func cacheKey(stationID string) string {
	return fmt.Sprintf("latest_sample:%s", stationID)
}

// Latest returns the station's most recent sample, preferring the cache.
// Cache failures fall through to the backing source; a cache outage
// degrades latency, not correctness.
func (c *CachedSource) Latest(ctx context.Context, stationID string) (*weather.Sample, error) {
	key := cacheKey(stationID)

	data, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var s weather.Sample
		if err := json.Unmarshal([]byte(data), &s); err == nil {
			metrics.SampleCacheLookups.WithLabelValues("hit").Inc()
			return &s, nil
		}
		// Corrupt entry, treat as a miss and refetch.
		metrics.SampleCacheLookups.WithLabelValues("error").Inc()
	case err == redis.Nil:
		metrics.SampleCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.SampleCacheLookups.WithLabelValues("error").Inc()
		log := logger.WithComponent("samples")
		log.Debug().Err(err).Str("station_id", stationID).Msg("cache lookup failed")
	}

	sample, err := c.next.Latest(ctx, stationID)
	if err != nil || sample == nil {
		return sample, err
	}

	if data, err := json.Marshal(sample); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log := logger.WithComponent("samples")
			log.Debug().Err(err).Str("station_id", stationID).Msg("cache write failed")
		}
	}

	return sample, nil
}

// Window passes through to the backing source.
func (c *CachedSource) Window(ctx context.Context, stationID string, lookback time.Duration) ([]weather.Sample, error) {
	return c.next.Window(ctx, stationID, lookback)
}
