package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_BandsHoldForEveryCoverage(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		lo, hi       int
		status       Status
		minHS, maxHS int
	}{
		{0, 10, StatusHealthy, 90, 99},
		{11, 30, StatusWarning, 60, 88},
		{31, 60, StatusCritical, 30, 58},
		{61, 100, StatusEmergency, 0, 29},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			for coverage := tt.lo; coverage <= tt.hi; coverage++ {
				// Sample repeatedly: the health score is random within the band.
				for range 50 {
					hs, status := Score(coverage, rng)
					require.Equal(t, tt.status, status, "coverage %d", coverage)
					require.GreaterOrEqual(t, hs, tt.minHS, "coverage %d", coverage)
					require.LessOrEqual(t, hs, tt.maxHS, "coverage %d", coverage)
				}
			}
		})
	}
}

func TestScore_SamplesPerCall(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	seen := map[int]bool{}
	for range 200 {
		hs, _ := Score(45, rng)
		seen[hs] = true
	}
	assert.Greater(t, len(seen), 1, "health score must not be memoized")
}

func TestScore_ClampsOutOfRangeCoverage(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	_, status := Score(-5, rng)
	assert.Equal(t, StatusHealthy, status)

	_, status = Score(250, rng)
	assert.Equal(t, StatusEmergency, status)
}

func TestStatusFor_Boundaries(t *testing.T) {
	assert.Equal(t, StatusHealthy, StatusFor(10))
	assert.Equal(t, StatusWarning, StatusFor(11))
	assert.Equal(t, StatusWarning, StatusFor(30))
	assert.Equal(t, StatusCritical, StatusFor(31))
	assert.Equal(t, StatusCritical, StatusFor(60))
	assert.Equal(t, StatusEmergency, StatusFor(61))
}

func TestRanges(t *testing.T) {
	lo, hi := HealthRange(StatusWarning)
	assert.Equal(t, 60, lo)
	assert.Equal(t, 88, hi)

	lo, hi = CoverageRange(StatusCritical)
	assert.Equal(t, 31, lo)
	assert.Equal(t, 60, hi)

	lo, hi = HealthRange(Status("Unknown"))
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestNominalHealth_StaysInBand(t *testing.T) {
	for coverage := 0; coverage <= 100; coverage++ {
		hs := NominalHealth(coverage)
		lo, hi := HealthRange(StatusFor(coverage))
		assert.GreaterOrEqual(t, hs, lo, "coverage %d", coverage)
		assert.LessOrEqual(t, hs, hi, "coverage %d", coverage)
	}
	assert.Equal(t, 99, NominalHealth(0))
	assert.Equal(t, 0, NominalHealth(100))
}

func TestRandomScorer_CoverageBelowHundred(t *testing.T) {
	s := NewRandomScorer(42)
	for range 500 {
		a := s.Assess(Image{})
		require.GreaterOrEqual(t, a.Coverage, 0)
		require.LessOrEqual(t, a.Coverage, 99)
		require.Equal(t, StatusFor(a.Coverage), a.Status)
		lo, hi := HealthRange(a.Status)
		require.GreaterOrEqual(t, a.HealthScore, lo)
		require.LessOrEqual(t, a.HealthScore, hi)
	}
}

func TestFixedCoverageScorer(t *testing.T) {
	s := NewFixedCoverageScorer(45, 1)
	a := s.Assess(Image{})

	assert.Equal(t, 45, a.Coverage)
	assert.Equal(t, StatusCritical, a.Status)
	assert.GreaterOrEqual(t, a.HealthScore, 30)
	assert.LessOrEqual(t, a.HealthScore, 58)
}

func TestStatusPresentation(t *testing.T) {
	assert.Equal(t, "green", StatusColor(StatusHealthy))
	assert.Equal(t, "gold", StatusColor(StatusWarning))
	assert.Equal(t, "orange", StatusColor(StatusCritical))
	assert.Equal(t, "red", StatusColor(StatusEmergency))

	assert.Equal(t, "healthy", StatusClass(StatusHealthy))
	assert.Equal(t, "warning", StatusClass(StatusWarning))
	assert.Equal(t, "critical", StatusClass(StatusCritical))
	assert.Equal(t, "critical", StatusClass(StatusEmergency))

	assert.Contains(t, Advisory(StatusWarning), "Eichhornia")
}
