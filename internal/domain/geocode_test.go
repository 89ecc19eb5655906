package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	reverseResult Place
	reverseErr    error
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (Place, error) {
	return Place{}, nil
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (Place, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestEnrichWithPlace_NilGeocoder(t *testing.T) {
	r := Report{ID: "r-1", Lat: 12.97, Lng: 77.59}

	result := EnrichWithPlace(context.Background(), r, nil, discardLogger())

	assert.Empty(t, result.Place)
}

func TestEnrichWithPlace_UsesFormattedAddress(t *testing.T) {
	geo := &mockGeocoder{reverseResult: Place{
		FormattedAddress: "Bellandur, Bengaluru, Karnataka, India",
		Name:             "Bellandur",
	}}
	r := Report{ID: "r-1", Lat: 12.9352, Lng: 77.6693, LocationSource: LocationDevice}

	result := EnrichWithPlace(context.Background(), r, geo, discardLogger())

	assert.Equal(t, "Bellandur, Bengaluru, Karnataka, India", result.Place)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestEnrichWithPlace_FallsBackToName(t *testing.T) {
	geo := &mockGeocoder{reverseResult: Place{Name: "Powai"}}
	r := Report{ID: "r-1", Lat: 19.1176, Lng: 72.9060}

	result := EnrichWithPlace(context.Background(), r, geo, discardLogger())

	assert.Equal(t, "Powai", result.Place)
}

func TestEnrichWithPlace_SkipsFallbackLocation(t *testing.T) {
	geo := &mockGeocoder{reverseResult: Place{Name: "Kolkata"}}
	r := Report{
		ID:             "r-1",
		Lat:            FallbackLocation.Lat,
		Lng:            FallbackLocation.Lng,
		LocationSource: LocationFallback,
	}

	result := EnrichWithPlace(context.Background(), r, geo, discardLogger())

	assert.Empty(t, result.Place)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestEnrichWithPlace_ErrorLeavesReportUnchanged(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("timeout")}
	r := Report{ID: "r-1", Lat: 28.61, Lng: 77.21}

	result := EnrichWithPlace(context.Background(), r, geo, discardLogger())

	assert.Equal(t, r, result)
}

func TestEnrichWithPlace_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	r := Report{ID: "r-1", Lat: 28.61, Lng: 77.21}

	result := EnrichWithPlace(context.Background(), r, geo, discardLogger())

	assert.Empty(t, result.Place)
	assert.Equal(t, 1, geo.reverseCalls)
}
