package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Status is the severity tier derived from a coverage band.
type Status string

const (
	StatusHealthy   Status = "Healthy"
	StatusWarning   Status = "Warning"
	StatusCritical  Status = "Critical"
	StatusEmergency Status = "Emergency"
)

// IsCriticalOrAbove reports whether the status is Critical or Emergency.
func (s Status) IsCriticalOrAbove() bool {
	return s == StatusCritical || s == StatusEmergency
}

// WaterBodyType is the kind of water body the user photographed.
type WaterBodyType string

const (
	WaterBodyLake      WaterBodyType = "Lake"
	WaterBodyRiver     WaterBodyType = "River"
	WaterBodyCanal     WaterBodyType = "Canal"
	WaterBodyPond      WaterBodyType = "Pond"
	WaterBodyReservoir WaterBodyType = "Reservoir"
	WaterBodyWetland   WaterBodyType = "Wetland"
)

// DefaultWaterBodyType is preselected on a fresh draft.
const DefaultWaterBodyType = WaterBodyLake

var waterBodyTypes = []WaterBodyType{
	WaterBodyLake, WaterBodyRiver, WaterBodyCanal, WaterBodyPond, WaterBodyReservoir, WaterBodyWetland,
}

// WaterBodyTypes returns the selectable water-body types in display order.
func WaterBodyTypes() []WaterBodyType {
	out := make([]WaterBodyType, len(waterBodyTypes))
	copy(out, waterBodyTypes)
	return out
}

// ParseWaterBodyType matches a type name case-insensitively.
func ParseWaterBodyType(s string) (WaterBodyType, error) {
	s = strings.TrimSpace(s)
	for _, t := range waterBodyTypes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWaterBodyType, s)
}

// LocationSource records where a report's coordinates came from.
type LocationSource string

const (
	LocationDevice   LocationSource = "device"
	LocationFallback LocationSource = "fallback"
)

// Report is a persisted observation of one water body.
type Report struct {
	ID             string         `json:"id"`
	Image          string         `json:"image"`
	Lat            float64        `json:"lat"`
	Lng            float64        `json:"lng"`
	Type           WaterBodyType  `json:"type"`
	Coverage       int            `json:"coverage"`
	HealthScore    int            `json:"healthScore"`
	Status         Status         `json:"status"`
	Timestamp      time.Time      `json:"timestamp"`
	Place          string         `json:"place,omitempty"`
	LocationSource LocationSource `json:"locationSource,omitempty"`
}

// Image is a captured still image.
type Image struct {
	Data        []byte
	ContentType string
}

// DataURL encodes the image inline, the way browsers hand images around.
func (img Image) DataURL() string {
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Draft accumulates the pieces of a report before submission.
type Draft struct {
	Image          Image          `json:"-"`
	Location       *Coordinate    `json:"location,omitempty"`
	LocationSource LocationSource `json:"locationSource,omitempty"`
	Type           WaterBodyType  `json:"type"`
}

// NewDraft returns an empty draft with the default water-body type.
func NewDraft() Draft {
	return Draft{Type: DefaultWaterBodyType}
}

// HasImage reports whether an image has been captured.
func (d Draft) HasImage() bool { return len(d.Image.Data) > 0 }

// HasLocation reports whether coordinates have been resolved.
func (d Draft) HasLocation() bool { return d.Location != nil }

// Complete reports whether the draft can be submitted.
func (d Draft) Complete() bool { return d.HasImage() && d.HasLocation() }

// ReportEventType names a store mutation.
type ReportEventType string

const (
	ReportCreated  ReportEventType = "report.created"
	ReportResolved ReportEventType = "report.resolved"
)

// ReportEvent describes one mutation of the report collection.
type ReportEvent struct {
	Type       ReportEventType `json:"type"`
	Report     Report          `json:"report"`
	OccurredAt time.Time       `json:"occurred_at"`
}
