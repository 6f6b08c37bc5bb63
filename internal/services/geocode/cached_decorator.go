package geocode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Yassin-Kassem/weather-news-api/internal/models"
)

type reverseGeocoder interface {
	Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

// CachedClient caches resolved places. Coordinates are rounded to four
// decimals for the key, roughly an 11m grid, so nearby fixes share an entry.
type CachedClient struct {
	inner  reverseGeocoder
	cache  cacheClient[models.Place]
	logger zerolog.Logger
}

func NewCachedClient(
	inner reverseGeocoder,
	cache cacheClient[models.Place],
	logger zerolog.Logger,
) *CachedClient {
	return &CachedClient{inner: inner, cache: cache, logger: logger}
}

func (c *CachedClient) Reverse(ctx context.Context, coord models.Coordinate) (models.Place, error) {
	key := fmt.Sprintf("geo:%.4f,%.4f", coord.Latitude, coord.Longitude)

	place, err := c.cache.Get(ctx, key)
	if err == nil {
		c.logger.Debug().Ctx(ctx).Str("key", key).Msg("geocode cache hit")
		return place, nil
	}

	place, err = c.inner.Reverse(ctx, coord)
	if err != nil {
		return models.Place{}, err
	}

	// Empty results stay uncached so a transient provider miss can recover.
	if place.City != "" || place.Subregion != "" || place.Region != "" {
		if setErr := c.cache.Set(ctx, key, place); setErr != nil {
			c.logger.Error().Ctx(ctx).Str("key", key).Err(setErr).Msg("geocode cache set failed")
		}
	}

	return place, nil
}
