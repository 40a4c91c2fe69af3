package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarFilterSeedsOnFirstMeasurement(t *testing.T) {
	t.Parallel()
	f := NewScalarFilter(DefaultProcessNoise)

	got := f.Process(48.1173, 5)
	assert.Equal(t, 48.1173, got, "first measurement passes through unchanged")
	assert.Equal(t, 5.0, f.Variance())
}

func TestScalarFilterConvergesToConstantSignal(t *testing.T) {
	t.Parallel()
	f := NewScalarFilter(DefaultProcessNoise)

	f.Process(10.0, 5)

	prevVariance := f.Variance()
	var estimate float64
	for i := 0; i < 200; i++ {
		estimate = f.Process(12.0, 5)
		assert.Less(t, f.Variance(), prevVariance, "variance must shrink monotonically")
		prevVariance = f.Variance()
	}

	assert.InDelta(t, 12.0, estimate, 0.05, "estimate converges to the constant signal")
}

func TestScalarFilterDampsNoise(t *testing.T) {
	t.Parallel()
	f := NewScalarFilter(DefaultProcessNoise)

	f.Process(100.0, 10)
	// A single outlier measurement should move the estimate far less than
	// the raw innovation.
	got := f.Process(110.0, 10)
	assert.Greater(t, got, 100.0)
	assert.Less(t, got, 106.0)
}

func TestScalarFilterRejectsBadProcessNoise(t *testing.T) {
	t.Parallel()
	f := NewScalarFilter(0)
	f.Process(1, 1)
	// Falls back to the default constant rather than dividing by a zero
	// predicted variance later.
	assert.NotPanics(t, func() { f.Process(1, 1) })
}

func TestFixSmootherChannelsAreIndependent(t *testing.T) {
	t.Parallel()
	s := NewFixSmoother(DefaultProcessNoise)

	fix := RawFix{Lat: 48.0, Lon: 11.0, AccuracyM: 5}
	lat, lon := s.Smooth(fix)
	assert.Equal(t, 48.0, lat)
	assert.Equal(t, 11.0, lon)

	// Move only the longitude; the latitude channel must not drift.
	fix2 := RawFix{Lat: 48.0, Lon: 11.1, AccuracyM: 5}
	lat2, lon2 := s.Smooth(fix2)
	assert.Equal(t, 48.0, lat2)
	assert.Greater(t, lon2, 11.0)
	assert.Less(t, lon2, 11.1)
}

func TestFixSmootherGuardsNonPositiveNoise(t *testing.T) {
	t.Parallel()
	s := NewFixSmoother(DefaultProcessNoise)

	assert.NotPanics(t, func() {
		s.Smooth(RawFix{Lat: 48, Lon: 11, AccuracyM: 0})
		s.Smooth(RawFix{Lat: 48, Lon: 11, AccuracyM: -1})
	})
}
