package mapbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/couchcryptid/ecoguard-service/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.Place]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[string, domain.Place](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.Place, error) {
	key := "fwd:" + strings.ToLower(strings.TrimSpace(query))
	return c.lookup(key, "forward", func() (domain.Place, error) {
		return c.inner.ForwardGeocode(ctx, query)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (domain.Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lng)
	return c.lookup(key, "reverse", func() (domain.Place, error) {
		return c.inner.ReverseGeocode(ctx, lat, lng)
	})
}

func (c *CachedGeocoder) lookup(key, method string, fetch func() (domain.Place, error)) (domain.Place, error) {
	if place, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return place, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	place, err := fetch()
	if err != nil {
		return place, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if !place.Empty() {
		c.cache.Add(key, place)
	}
	return place, nil
}

// Len reports the number of cached places.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}
