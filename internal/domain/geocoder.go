package domain

import "context"

// Place is what a geocoding provider knows about a coordinate or query.
type Place struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	Name             string
	Confidence       float64 // 0.0–1.0 provider relevance
}

// Empty reports whether the provider found nothing.
func (p Place) Empty() bool {
	return p.FormattedAddress == "" && p.Name == ""
}

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	// ForwardGeocode converts a free-text query (e.g. a city) to coordinates.
	ForwardGeocode(ctx context.Context, query string) (Place, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error)
}
