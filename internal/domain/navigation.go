package domain

import (
	"fmt"
	"strings"
)

// Destination is one of the app's top-level views.
type Destination string

const (
	DestinationHome      Destination = "home"
	DestinationCapture   Destination = "capture"
	DestinationMap       Destination = "map"
	DestinationAnalysis  Destination = "analysis"
	DestinationDashboard Destination = "dashboard"
)

var destinations = []Destination{
	DestinationHome, DestinationCapture, DestinationMap, DestinationAnalysis, DestinationDashboard,
}

// ParseDestination matches a destination name case-insensitively.
func ParseDestination(s string) (Destination, error) {
	s = strings.TrimSpace(s)
	for _, d := range destinations {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDestination, s)
}
