package domain

import (
	"context"
	"log/slog"
)

// EnrichWithPlace labels a report with the place name at its coordinates.
// Reports placed at the fallback coordinate are left alone, since the name
// would describe the fallback city rather than the water body. A nil
// geocoder or a failed lookup returns the report unchanged.
func EnrichWithPlace(ctx context.Context, r Report, geocoder Geocoder, logger *slog.Logger) Report {
	if geocoder == nil || r.LocationSource == LocationFallback {
		return r
	}

	place, err := geocoder.ReverseGeocode(ctx, r.Lat, r.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"report_id", r.ID,
			"lat", r.Lat,
			"lng", r.Lng,
			"error", err,
		)
		return r
	}
	if place.Empty() {
		return r
	}

	r.Place = place.FormattedAddress
	if r.Place == "" {
		r.Place = place.Name
	}
	return r
}
