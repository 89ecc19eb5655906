package domain

import (
	"math/rand/v2"
	"sync"
)

// band is one row of the coverage → (status, health score) table.
type band struct {
	maxCoverage int
	status      Status
	minHealth   int
	maxHealth   int
}

var bands = []band{
	{maxCoverage: 10, status: StatusHealthy, minHealth: 90, maxHealth: 99},
	{maxCoverage: 30, status: StatusWarning, minHealth: 60, maxHealth: 88},
	{maxCoverage: 60, status: StatusCritical, minHealth: 30, maxHealth: 58},
	{maxCoverage: 100, status: StatusEmergency, minHealth: 0, maxHealth: 29},
}

func bandFor(coverage int) band {
	coverage = clampCoverage(coverage)
	for _, b := range bands {
		if coverage <= b.maxCoverage {
			return b
		}
	}
	return bands[len(bands)-1]
}

func clampCoverage(coverage int) int {
	return max(0, min(coverage, 100))
}

// StatusFor returns the status of the band containing coverage.
func StatusFor(coverage int) Status {
	return bandFor(coverage).status
}

// HealthRange returns the inclusive health-score range for a status.
func HealthRange(status Status) (lo, hi int) {
	for _, b := range bands {
		if b.status == status {
			return b.minHealth, b.maxHealth
		}
	}
	return 0, 0
}

// CoverageRange returns the inclusive coverage range for a status.
func CoverageRange(status Status) (lo, hi int) {
	lo = 0
	for _, b := range bands {
		if b.status == status {
			return lo, b.maxCoverage
		}
		lo = b.maxCoverage + 1
	}
	return 0, 0
}

// Score maps coverage to a health score sampled inside its band, and the
// band's status. Coverage outside 0–100 is clamped.
func Score(coverage int, rng *rand.Rand) (healthScore int, status Status) {
	b := bandFor(coverage)
	return b.minHealth + rng.IntN(b.maxHealth-b.minHealth+1), b.status
}

// NominalHealth places coverage linearly inside its band's health range,
// highest health at the low end of the band. Used for fixture data where a
// reproducible score is wanted.
func NominalHealth(coverage int) int {
	coverage = clampCoverage(coverage)
	b := bandFor(coverage)
	lo, hi := CoverageRange(b.status)
	if hi == lo {
		return b.maxHealth
	}
	return b.maxHealth - (coverage-lo)*(b.maxHealth-b.minHealth)/(hi-lo)
}

// Assessment is the output of a scoring run.
type Assessment struct {
	Coverage    int    `json:"coverage"`
	HealthScore int    `json:"healthScore"`
	Status      Status `json:"status"`
}

// Scorer estimates invasive-plant coverage for an image and grades it.
type Scorer interface {
	Assess(image Image) Assessment
}

// BandScorer draws a coverage value and grades it with the band table.
// Safe for concurrent use.
type BandScorer struct {
	mu       sync.Mutex
	rng      *rand.Rand
	coverage func(rng *rand.Rand, image Image) int
}

// NewRandomScorer samples coverage uniformly from 0–99.
func NewRandomScorer(seed uint64) *BandScorer {
	return &BandScorer{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		coverage: func(rng *rand.Rand, _ Image) int {
			return rng.IntN(100)
		},
	}
}

// NewFixedCoverageScorer always reports the given coverage; only the health
// score is sampled.
func NewFixedCoverageScorer(coverage int, seed uint64) *BandScorer {
	s := NewRandomScorer(seed)
	s.coverage = func(*rand.Rand, Image) int { return clampCoverage(coverage) }
	return s
}

func (s *BandScorer) Assess(image Image) Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()

	coverage := s.coverage(s.rng, image)
	health, status := Score(coverage, s.rng)
	return Assessment{Coverage: coverage, HealthScore: health, Status: status}
}

// StatusColor is the marker color for a status.
func StatusColor(s Status) string {
	switch s {
	case StatusWarning:
		return "gold"
	case StatusCritical:
		return "orange"
	case StatusEmergency:
		return "red"
	default:
		return "green"
	}
}

// StatusClass groups statuses into the three dashboard row styles.
func StatusClass(s Status) string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusCritical, StatusEmergency:
		return "critical"
	default:
		return "healthy"
	}
}

// Advisory is the guidance shown alongside an analysis result.
func Advisory(s Status) string {
	switch s {
	case StatusHealthy:
		return "No immediate action required. Water body is in good condition."
	case StatusWarning:
		return "Monitor closely. Early signs of Eichhornia detected."
	case StatusCritical:
		return "Cleanup recommended. Infestation is spreading."
	default:
		return "Urgent action required. Ecosystem failure imminent."
	}
}
