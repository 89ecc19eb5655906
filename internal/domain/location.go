package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate rejects coordinates outside the WGS-84 range.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: %.6f,%.6f", ErrInvalidCoordinate, c.Lat, c.Lng)
	}
	return nil
}

// FallbackLocation is used when the device cannot produce a fix.
var FallbackLocation = Coordinate{Lat: 22.5726, Lng: 88.3639}

// Locator produces the device's current position once.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// FixLocator replays a fix (or failure) reported by the client device.
type FixLocator struct {
	Fix Coordinate
	Err error
}

func (l FixLocator) Locate(_ context.Context) (Coordinate, error) {
	if l.Err != nil {
		return Coordinate{}, l.Err
	}
	if err := l.Fix.Validate(); err != nil {
		return Coordinate{}, err
	}
	return l.Fix, nil
}

// cities are the city-focus presets offered on the map.
var cities = map[string]Coordinate{
	"Agra":          {27.1767, 78.0081},
	"Ahmedabad":     {23.0225, 72.5714},
	"Allahabad":     {25.4358, 81.8463},
	"Amritsar":      {31.6340, 74.8723},
	"Aurangabad":    {19.8762, 75.3433},
	"Bangalore":     {12.9716, 77.5946},
	"Bhopal":        {23.2599, 77.4126},
	"Chennai":       {13.0827, 80.2707},
	"Coimbatore":    {11.0168, 76.9558},
	"Delhi":         {28.6139, 77.2090},
	"Dhanbad":       {23.7957, 86.4304},
	"Guwahati":      {26.1445, 91.7362},
	"Gwalior":       {26.2183, 78.1828},
	"Hyderabad":     {17.3850, 78.4867},
	"Indore":        {22.7196, 75.8577},
	"Jabalpur":      {23.1815, 79.9864},
	"Jaipur":        {26.9124, 75.7873},
	"Jodhpur":       {26.2389, 73.0243},
	"Kanpur":        {26.4499, 80.3319},
	"Kolkata":       {22.5726, 88.3639},
	"Kota":          {25.2138, 75.8648},
	"Lucknow":       {26.8467, 80.9462},
	"Ludhiana":      {30.9010, 75.8573},
	"Madurai":       {9.9252, 78.1198},
	"Meerut":        {28.9845, 77.7064},
	"Mumbai":        {19.0760, 72.8777},
	"Nagpur":        {21.1458, 79.0882},
	"Nashik":        {19.9975, 73.7898},
	"Patna":         {25.5941, 85.1376},
	"Pune":          {18.5204, 73.8567},
	"Raipur":        {21.2514, 81.6296},
	"Rajkot":        {22.3039, 70.8022},
	"Ranchi":        {23.3441, 85.3096},
	"Srinagar":      {34.0837, 74.7973},
	"Surat":         {21.1702, 72.8311},
	"Vadodara":      {22.3072, 73.1812},
	"Varanasi":      {25.3176, 82.9739},
	"Vijayawada":    {16.5062, 80.6480},
	"Visakhapatnam": {17.6868, 83.2185},
}

// CityNames returns the preset city names sorted alphabetically.
func CityNames() []string {
	names := make([]string, 0, len(cities))
	for name := range cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupCity finds a preset city case-insensitively.
func LookupCity(name string) (Coordinate, bool) {
	name = strings.TrimSpace(name)
	for city, c := range cities {
		if strings.EqualFold(city, name) {
			return c, true
		}
	}
	return Coordinate{}, false
}
