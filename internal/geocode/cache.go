package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/observability"
)

const cacheKeyPrefix = "geocode:"

// CachedGeocoder decorates a Geocoder with a Redis cache.
// Empty results are cached too; errors never are. Redis failures fall through to the wrapped geocoder.
type CachedGeocoder struct {
	next Geocoder
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedGeocoder wraps next with a Redis cache whose entries live for ttl.
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(query string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *CachedGeocoder) Geocode(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey(query)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []Result
		if jsonErr := json.Unmarshal(cached, &results); jsonErr == nil {
			observability.ObserveCache("geocode", "hit")
			return results, nil
		}
		log.Warn().Str("key", key).Msg("Discarding corrupt geocode cache entry")
	case errors.Is(err, redis.Nil):
		observability.ObserveCache("geocode", "miss")
	default:
		observability.ObserveCache("geocode", "error")
		log.Warn().Err(err).Msg("Geocode cache read failed")
	}

	results, err := c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(results)
	if err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("Geocode cache write failed")
		} else {
			observability.ObserveCache("geocode", "set")
		}
	}
	return results, nil
}
