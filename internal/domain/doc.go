// Package domain models EcoGuard water-body reports: what a report is, how a
// coverage estimate becomes a health score and status, which classifier
// labels count as a water body, and where a report lands when the device
// cannot produce a location.
//
// # Reports
//
// A Report is one observed water body. It is immutable once created and
// only ever leaves the collection through an explicit resolve. Every report
// carries a stable UUID, and resolves address reports by that id.
//
// # Scoring Bands
//
// Coverage is the predicted percentage of surface covered by invasive
// vegetation (water hyacinth, Eichhornia crassipes). Status is a
// deterministic function of the coverage band; the health score is sampled
// inside the band's range on every call:
//
//	coverage   status     health score
//	0–10       Healthy    90–99
//	11–30      Warning    60–88
//	31–60      Critical   30–58
//	61–100     Emergency  0–29
//
// The sampled coverage stands in for a segmentation model. [Scorer] is the
// seam where a real model plugs in; the band table stays the same.
//
// # Image Validation
//
// An external image classifier returns ranked labels. An image is accepted
// as a water body when any label contains (case-insensitively) one of the
// terms in the water/landscape allow-list. See [IsWaterBody].
//
// # Location
//
// Coordinates are WGS-84 decimal degrees. When the device fix fails the
// report is placed at [FallbackLocation] (Kolkata, 22.5726, 88.3639) and
// tagged with [LocationFallback].
package domain
