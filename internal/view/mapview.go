package view

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
)

// Filter selects which reports appear on the map.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterCritical Filter = "critical"
)

// ParseFilter accepts "all" and "critical"; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FilterAll):
		return FilterAll, nil
	case string(FilterCritical):
		return FilterCritical, nil
	default:
		return "", fmt.Errorf("unknown map filter %q", s)
	}
}

const (
	metersPerCoveragePoint = 800
	minAreaCoverage        = 10
	pointRadiusPx          = 5
	fitPaddingPx           = 80
	cityZoom               = 12
	defaultZoom            = 5
)

// DefaultCenter is the initial map view over India.
var DefaultCenter = domain.Coordinate{Lat: 20.5937, Lng: 78.9629}

type MarkerKind string

const (
	MarkerArea  MarkerKind = "area"
	MarkerPoint MarkerKind = "point"
)

// Marker is one shape for the map provider. Radius is in meters for area
// markers and in pixels for point markers.
type Marker struct {
	ReportID string     `json:"reportId"`
	Kind     MarkerKind `json:"kind"`
	Lat      float64    `json:"lat"`
	Lng      float64    `json:"lng"`
	Radius   float64    `json:"radius"`
	Color    string     `json:"color"`
	Popup    Popup      `json:"popup"`
}

type Popup struct {
	Title    string        `json:"title"`
	Status   domain.Status `json:"status"`
	Coverage int           `json:"coverage"`
	ImpactKm float64       `json:"impactKm"`
	Image    string        `json:"image"`
	Place    string        `json:"place,omitempty"`
}

type ViewportMode string

const (
	ViewportFit     ViewportMode = "fit"
	ViewportFocus   ViewportMode = "focus"
	ViewportDefault ViewportMode = "default"
)

type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Viewport tells the map provider where to look. Fit uses Bounds and
// Padding; focus and default use Center and Zoom.
type Viewport struct {
	Mode    ViewportMode       `json:"mode"`
	Center  *domain.Coordinate `json:"center,omitempty"`
	Zoom    int                `json:"zoom,omitempty"`
	Bounds  *Bounds            `json:"bounds,omitempty"`
	Padding int                `json:"padding,omitempty"`
}

// Focus is a manual city override of the auto-fit viewport.
type Focus struct {
	City   string            `json:"city"`
	Center domain.Coordinate `json:"center"`
}

// Scene is a complete map render.
type Scene struct {
	Filter   Filter   `json:"filter"`
	Focus    *Focus   `json:"focus,omitempty"`
	Markers  []Marker `json:"markers"`
	Viewport Viewport `json:"viewport"`
}

// AreaRadius is the infestation-zone radius in meters for a coverage value.
// Zero coverage still renders at the minimum zone size.
func AreaRadius(coverage int) float64 {
	if coverage == 0 {
		coverage = minAreaCoverage
	}
	return float64(coverage * metersPerCoveragePoint)
}

// RenderScene builds the scene for reports under a filter and optional focus.
func RenderScene(reports []domain.Report, filter Filter, focus *Focus) Scene {
	scene := Scene{Filter: filter, Focus: focus, Markers: []Marker{}}

	var b *Bounds
	for _, r := range reports {
		if filter == FilterCritical && !r.Status.IsCriticalOrAbove() {
			continue
		}

		color := domain.StatusColor(r.Status)
		radius := AreaRadius(r.Coverage)
		popup := Popup{
			Title:    string(r.Type) + " Infestation",
			Status:   r.Status,
			Coverage: r.Coverage,
			ImpactKm: math.Round(radius/100) / 10,
			Image:    r.Image,
			Place:    r.Place,
		}
		scene.Markers = append(scene.Markers,
			Marker{ReportID: r.ID, Kind: MarkerArea, Lat: r.Lat, Lng: r.Lng, Radius: radius, Color: color, Popup: popup},
			Marker{ReportID: r.ID, Kind: MarkerPoint, Lat: r.Lat, Lng: r.Lng, Radius: pointRadiusPx, Color: color, Popup: popup},
		)
		b = extend(b, r.Lat, r.Lng)
	}

	switch {
	case focus != nil:
		center := focus.Center
		scene.Viewport = Viewport{Mode: ViewportFocus, Center: &center, Zoom: cityZoom}
	case b != nil:
		scene.Viewport = Viewport{Mode: ViewportFit, Bounds: b, Padding: fitPaddingPx}
	default:
		center := DefaultCenter
		scene.Viewport = Viewport{Mode: ViewportDefault, Center: &center, Zoom: defaultZoom}
	}
	return scene
}

func extend(b *Bounds, lat, lng float64) *Bounds {
	if b == nil {
		return &Bounds{South: lat, North: lat, West: lng, East: lng}
	}
	b.South = min(b.South, lat)
	b.North = max(b.North, lat)
	b.West = min(b.West, lng)
	b.East = max(b.East, lng)
	return b
}

// MapView keeps the filter and city-focus state between renders.
type MapView struct {
	geocoder domain.Geocoder
	logger   *slog.Logger

	mu      sync.Mutex
	reports []domain.Report
	filter  Filter
	focus   *Focus
	scene   Scene
}

// NewMapView creates a map view. geocoder resolves cities outside the preset
// table and may be nil.
func NewMapView(geocoder domain.Geocoder, logger *slog.Logger) *MapView {
	v := &MapView{geocoder: geocoder, logger: logger, filter: FilterAll}
	v.scene = RenderScene(nil, FilterAll, nil)
	return v
}

// Refresh re-renders from a new store snapshot.
func (v *MapView) Refresh(reports []domain.Report) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reports = reports
	v.renderLocked()
}

// Scene returns the latest render.
func (v *MapView) Scene() Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// SceneFor renders the current reports and focus under f without changing
// the stored filter.
func (v *MapView) SceneFor(f Filter) Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	if f == v.filter {
		return v.scene
	}
	var focus *Focus
	if v.focus != nil {
		c := *v.focus
		focus = &c
	}
	return RenderScene(v.reports, f, focus)
}

// SetFilter changes the filter and re-renders.
func (v *MapView) SetFilter(f Filter) Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
	v.renderLocked()
	return v.scene
}

// FocusCity centers the map on a city. An empty name or "all" clears the
// focus and the viewport fits the markers again.
func (v *MapView) FocusCity(ctx context.Context, name string) (Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "all") {
		return v.ClearFocus(), nil
	}

	center, ok := domain.LookupCity(name)
	if !ok {
		var err error
		center, err = v.geocodeCity(ctx, name)
		if err != nil {
			return v.Scene(), err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.focus = &Focus{City: name, Center: center}
	v.renderLocked()
	return v.scene, nil
}

// ClearFocus drops the city override.
func (v *MapView) ClearFocus() Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focus = nil
	v.renderLocked()
	return v.scene
}

func (v *MapView) geocodeCity(ctx context.Context, name string) (domain.Coordinate, error) {
	if v.geocoder == nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %s", domain.ErrUnknownCity, name)
	}
	place, err := v.geocoder.ForwardGeocode(ctx, name)
	if err != nil {
		v.logger.Warn("city lookup failed", "city", name, "error", err)
		return domain.Coordinate{}, fmt.Errorf("%w: %s", domain.ErrUnknownCity, name)
	}
	if place.Empty() {
		return domain.Coordinate{}, fmt.Errorf("%w: %s", domain.ErrUnknownCity, name)
	}
	return domain.Coordinate{Lat: place.Lat, Lng: place.Lng}, nil
}

func (v *MapView) renderLocked() {
	var focus *Focus
	if v.focus != nil {
		f := *v.focus
		focus = &f
	}
	v.scene = RenderScene(v.reports, v.filter, focus)
}
