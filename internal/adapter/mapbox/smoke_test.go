//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	place, err := c.ForwardGeocode(context.Background(), "Bhopal")
	require.NoError(t, err)

	assert.InDelta(t, 23.26, place.Lat, 0.2, "lat should be near Bhopal")
	assert.InDelta(t, 77.41, place.Lng, 0.2, "lng should be near Bhopal")
	assert.Contains(t, place.FormattedAddress, "Bhopal")
	assert.Greater(t, place.Confidence, 0.5)
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Hussain Sagar, Hyderabad.
	place, err := c.ReverseGeocode(context.Background(), 17.4239, 78.4738)
	require.NoError(t, err)

	assert.NotEmpty(t, place.FormattedAddress)
	assert.NotEmpty(t, place.Name)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached, err := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())
	require.NoError(t, err)

	p1, err := cached.ForwardGeocode(context.Background(), "Udaipur")
	require.NoError(t, err)
	assert.Contains(t, p1.FormattedAddress, "Udaipur")

	p2, err := cached.ForwardGeocode(context.Background(), "Udaipur")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
