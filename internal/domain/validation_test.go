package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWaterBody(t *testing.T) {
	tests := []struct {
		name   string
		labels []Label
		want   bool
	}{
		{"lakeside label", []Label{{Label: "lakeside, lakeshore", Score: 0.91}}, true},
		{"case insensitive", []Label{{Label: "SEASHORE", Score: 0.4}}, true},
		{"match in a lower rank", []Label{{Label: "tabby cat"}, {Label: "water lily"}}, true},
		{"no water terms", []Label{{Label: "sports car"}, {Label: "laptop"}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWaterBody(tt.labels))
		})
	}
}

func TestMatchWaterLabel_ReturnsFirstMatch(t *testing.T) {
	l, ok := MatchWaterLabel([]Label{{Label: "canoe"}, {Label: "boathouse"}, {Label: "dam, dike"}})
	require.True(t, ok)
	assert.Equal(t, "boathouse", l.Label)
}

func TestParseWaterBodyType(t *testing.T) {
	got, err := ParseWaterBodyType(" river ")
	require.NoError(t, err)
	assert.Equal(t, WaterBodyRiver, got)

	_, err = ParseWaterBodyType("puddle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownWaterBodyType))
}

func TestFixLocator(t *testing.T) {
	loc, err := FixLocator{Fix: Coordinate{Lat: 12.34, Lng: 56.78}}.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lat: 12.34, Lng: 56.78}, loc)

	_, err = FixLocator{Err: errors.New("permission denied")}.Locate(context.Background())
	require.Error(t, err)

	_, err = FixLocator{Fix: Coordinate{Lat: 95, Lng: 0}}.Locate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestLookupCity(t *testing.T) {
	c, ok := LookupCity("kolkata")
	require.True(t, ok)
	assert.Equal(t, FallbackLocation, c)

	_, ok = LookupCity("Atlantis")
	assert.False(t, ok)

	names := CityNames()
	assert.Len(t, names, 39)
	assert.Equal(t, "Agra", names[0])
}

func TestDemoReports_ConsistentWithBands(t *testing.T) {
	reports := DemoReports()
	require.Len(t, reports, 24)

	ids := map[string]bool{}
	for _, r := range reports {
		assert.Equal(t, StatusFor(r.Coverage), r.Status, r.Place)
		lo, hi := HealthRange(r.Status)
		assert.GreaterOrEqual(t, r.HealthScore, lo, r.Place)
		assert.LessOrEqual(t, r.HealthScore, hi, r.Place)
		assert.NotEmpty(t, r.Image)
		ids[r.ID] = true
	}
	assert.Len(t, ids, 24, "ids must be unique")

	again := DemoReports()
	assert.Equal(t, reports[0].ID, again[0].ID, "ids are stable across reseeds")
}

func TestDraft(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, WaterBodyLake, d.Type)
	assert.False(t, d.Complete())

	d.Image = Image{Data: []byte{1}}
	assert.False(t, d.Complete())

	d.Location = &Coordinate{Lat: 1, Lng: 2}
	assert.True(t, d.Complete())
}

func TestImage_DataURL(t *testing.T) {
	img := Image{Data: []byte("abc"), ContentType: "image/png"}
	assert.Equal(t, "data:image/png;base64,YWJj", img.DataURL())

	s, err := InlineImageStore{}.Put(context.Background(), "id", img)
	require.NoError(t, err)
	assert.Equal(t, img.DataURL(), s)

	_, err = InlineImageStore{}.Put(context.Background(), "id", Image{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}
