package domain

import (
	"context"
	"strings"
)

// Label is one ranked prediction from an image classifier.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels image content. Ready is false until the underlying
// model has loaded.
type Classifier interface {
	Ready() bool
	Classify(ctx context.Context, image Image) ([]Label, error)
}

// waterKeywords are the label fragments that count as water or waterside
// scenery. Matching is substring and case-insensitive, so "lakeside,
// lakeshore" matches "lake".
var waterKeywords = []string{
	"lake", "river", "water", "pond", "canal", "sea", "ocean", "shore",
	"coast", "beach", "dam", "reservoir", "wetland", "marsh", "swamp",
	"lagoon", "creek", "stream", "valley", "boat", "fountain", "sandbar",
	"breakwater", "pier", "dock", "promontory", "cliff", "geyser", "alp",
	"algae", "lily",
}

// IsWaterBody reports whether any label matches the water allow-list.
// An empty label set is not a water body.
func IsWaterBody(labels []Label) bool {
	_, ok := MatchWaterLabel(labels)
	return ok
}

// MatchWaterLabel returns the first label that matches the allow-list.
func MatchWaterLabel(labels []Label) (Label, bool) {
	for _, l := range labels {
		name := strings.ToLower(l.Label)
		for _, kw := range waterKeywords {
			if strings.Contains(name, kw) {
				return l, true
			}
		}
	}
	return Label{}, false
}
