package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func report(id string, lat, lng float64, coverage int) domain.Report {
	return domain.Report{
		ID:          id,
		Image:       "https://img.example/" + id + ".jpg",
		Lat:         lat,
		Lng:         lng,
		Type:        domain.WaterBodyLake,
		Coverage:    coverage,
		HealthScore: domain.NominalHealth(coverage),
		Status:      domain.StatusFor(coverage),
		Timestamp:   time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC),
	}
}

type stubGeocoder struct {
	place domain.Place
	err   error
	calls int
}

func (g *stubGeocoder) ForwardGeocode(context.Context, string) (domain.Place, error) {
	g.calls++
	return g.place, g.err
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.Place, error) {
	return domain.Place{}, nil
}

func TestAreaRadius(t *testing.T) {
	assert.InDelta(t, 8000, AreaRadius(0), 0, "zero coverage renders at the minimum")
	assert.InDelta(t, 800, AreaRadius(1), 0)
	assert.InDelta(t, 36000, AreaRadius(45), 0)
	assert.InDelta(t, 80000, AreaRadius(100), 0)
}

func TestRenderScene_MarkersPerReport(t *testing.T) {
	reports := []domain.Report{
		report("a", 22.5, 88.3, 5),
		report("b", 19.0, 72.8, 45),
	}

	scene := RenderScene(reports, FilterAll, nil)

	require.Len(t, scene.Markers, 4)
	area, point := scene.Markers[2], scene.Markers[3]
	assert.Equal(t, MarkerArea, area.Kind)
	assert.Equal(t, MarkerPoint, point.Kind)
	assert.Equal(t, "b", area.ReportID)
	assert.InDelta(t, 36000, area.Radius, 0)
	assert.InDelta(t, 5, point.Radius, 0)
	assert.Equal(t, "orange", area.Color)
	assert.Equal(t, "green", scene.Markers[0].Color)

	want := Popup{
		Title:    "Lake Infestation",
		Status:   domain.StatusCritical,
		Coverage: 45,
		ImpactKm: 36,
		Image:    "https://img.example/b.jpg",
	}
	if diff := cmp.Diff(want, area.Popup); diff != "" {
		t.Errorf("popup mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderScene_CriticalFilter(t *testing.T) {
	reports := []domain.Report{
		report("healthy", 22.5, 88.3, 5),
		report("warning", 23.0, 88.0, 20),
		report("critical", 19.0, 72.8, 45),
		report("emergency", 17.4, 78.4, 80),
	}

	scene := RenderScene(reports, FilterCritical, nil)

	ids := map[string]bool{}
	for _, m := range scene.Markers {
		ids[m.ReportID] = true
	}
	assert.Equal(t, map[string]bool{"critical": true, "emergency": true}, ids)
}

func TestRenderScene_Viewport(t *testing.T) {
	t.Run("fit to markers", func(t *testing.T) {
		scene := RenderScene([]domain.Report{
			report("a", 22.5, 88.3, 5),
			report("b", 19.0, 72.8, 45),
		}, FilterAll, nil)

		want := Viewport{Mode: ViewportFit, Bounds: &Bounds{South: 19.0, West: 72.8, North: 22.5, East: 88.3}, Padding: 80}
		if diff := cmp.Diff(want, scene.Viewport); diff != "" {
			t.Errorf("viewport mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("default when empty", func(t *testing.T) {
		scene := RenderScene(nil, FilterAll, nil)
		assert.Equal(t, ViewportDefault, scene.Viewport.Mode)
		assert.Equal(t, DefaultCenter, *scene.Viewport.Center)
		assert.Equal(t, 5, scene.Viewport.Zoom)
		assert.NotNil(t, scene.Markers)
	})

	t.Run("default when filter hides everything", func(t *testing.T) {
		scene := RenderScene([]domain.Report{report("a", 22.5, 88.3, 5)}, FilterCritical, nil)
		assert.Empty(t, scene.Markers)
		assert.Equal(t, ViewportDefault, scene.Viewport.Mode)
	})

	t.Run("focus overrides fit", func(t *testing.T) {
		focus := &Focus{City: "Pune", Center: domain.Coordinate{Lat: 18.5204, Lng: 73.8567}}
		scene := RenderScene([]domain.Report{report("a", 22.5, 88.3, 5)}, FilterAll, focus)
		assert.Equal(t, ViewportFocus, scene.Viewport.Mode)
		assert.Equal(t, focus.Center, *scene.Viewport.Center)
		assert.Equal(t, 12, scene.Viewport.Zoom)
		assert.Len(t, scene.Markers, 2)
	})
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter("Critical")
	require.NoError(t, err)
	assert.Equal(t, FilterCritical, f)

	_, err = ParseFilter("healthy")
	require.Error(t, err)
}

func TestMapView_FocusCity(t *testing.T) {
	v := NewMapView(nil, discardLogger())
	v.Refresh([]domain.Report{report("a", 22.5, 88.3, 5)})

	scene, err := v.FocusCity(context.Background(), "mumbai")
	require.NoError(t, err)
	assert.Equal(t, ViewportFocus, scene.Viewport.Mode)
	assert.InDelta(t, 19.076, scene.Viewport.Center.Lat, 1e-9)

	// Focus survives a data refresh.
	v.Refresh([]domain.Report{report("a", 22.5, 88.3, 5), report("b", 19.0, 72.8, 45)})
	assert.Equal(t, ViewportFocus, v.Scene().Viewport.Mode)
	assert.Len(t, v.Scene().Markers, 4)

	for _, name := range []string{"", "all", "  ALL "} {
		_, err := v.FocusCity(context.Background(), "Pune")
		require.NoError(t, err)
		scene, err = v.FocusCity(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, ViewportFit, scene.Viewport.Mode, "clearing with %q re-fits", name)
		assert.Nil(t, scene.Focus)
	}
}

func TestMapView_FocusCity_Geocoded(t *testing.T) {
	geo := &stubGeocoder{place: domain.Place{Lat: 15.4909, Lng: 73.8278, Name: "Panaji"}}
	v := NewMapView(geo, discardLogger())

	scene, err := v.FocusCity(context.Background(), "Panaji")
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)
	assert.InDelta(t, 15.4909, scene.Viewport.Center.Lat, 1e-9)

	_, err = v.FocusCity(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls, "preset cities never hit the geocoder")
}

func TestMapView_FocusCity_Unknown(t *testing.T) {
	t.Run("no geocoder", func(t *testing.T) {
		v := NewMapView(nil, discardLogger())
		_, err := v.FocusCity(context.Background(), "Atlantis")
		require.ErrorIs(t, err, domain.ErrUnknownCity)
		assert.Equal(t, ViewportDefault, v.Scene().Viewport.Mode)
	})

	t.Run("geocoder error", func(t *testing.T) {
		v := NewMapView(&stubGeocoder{err: errors.New("timeout")}, discardLogger())
		_, err := v.FocusCity(context.Background(), "Atlantis")
		require.ErrorIs(t, err, domain.ErrUnknownCity)
	})

	t.Run("geocoder empty", func(t *testing.T) {
		v := NewMapView(&stubGeocoder{}, discardLogger())
		_, err := v.FocusCity(context.Background(), "Atlantis")
		require.ErrorIs(t, err, domain.ErrUnknownCity)
	})
}

func TestMapView_SetFilter(t *testing.T) {
	v := NewMapView(nil, discardLogger())
	v.Refresh([]domain.Report{report("a", 22.5, 88.3, 5), report("b", 19.0, 72.8, 80)})

	scene := v.SetFilter(FilterCritical)
	assert.Equal(t, FilterCritical, scene.Filter)
	assert.Len(t, scene.Markers, 2)

	scene = v.SetFilter(FilterAll)
	assert.Len(t, scene.Markers, 4)
}

func TestMapView_SceneForLeavesStoredFilter(t *testing.T) {
	v := NewMapView(nil, discardLogger())
	v.Refresh([]domain.Report{report("a", 22.5, 88.3, 5), report("b", 19.0, 72.8, 80)})

	scene := v.SceneFor(FilterCritical)
	assert.Equal(t, FilterCritical, scene.Filter)
	assert.Len(t, scene.Markers, 2)

	scene = v.Scene()
	assert.Equal(t, FilterAll, scene.Filter)
	assert.Len(t, scene.Markers, 4)
}
