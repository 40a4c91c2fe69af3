package track

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryPoint(sessionID string, t time.Time, lat, speed, altitude float64) *LocationPoint {
	return &LocationPoint{
		ID:        "p",
		SessionID: sessionID,
		Lat:       lat,
		Lon:       -0.1,
		Timestamp: t,
		AccuracyM: 10,
		AltitudeM: altitude,
		SpeedMps:  speed,
		CourseDeg: CourseUnknown,
	}
}

func TestSummarizeEmptySession(t *testing.T) {
	t.Parallel()
	store := newFakeLocationStore()

	summary, err := Summarize(store, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PointCount)
	assert.Zero(t, summary.DistanceM)
	assert.Zero(t, summary.AvgSpeedMps)
}

func TestSummarizeTrajectory(t *testing.T) {
	t.Parallel()
	store := newFakeLocationStore()
	base := time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)

	// Four points walking due north, 100m apart, climbing then descending.
	lats := []float64{51.5, 51.5 + metersLat(100), 51.5 + metersLat(200), 51.5 + metersLat(300)}
	speeds := []float64{1.0, 2.0, 3.0, 2.0}
	altitudes := []float64{100, 110, 105, 120}
	for i := range lats {
		require.NoError(t, store.Append(summaryPoint("walk", base.Add(time.Duration(i)*time.Minute), lats[i], speeds[i], altitudes[i])))
	}

	summary, err := Summarize(store, "walk")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.PointCount)
	assert.Equal(t, 3*time.Minute, summary.Duration)
	assert.InDelta(t, 300, summary.DistanceM, 1.0)
	assert.InDelta(t, 2.0, summary.AvgSpeedMps, 1e-9)
	assert.Equal(t, 3.0, summary.PeakSpeedMps)
	assert.Equal(t, 2.0, summary.P50SpeedMps)
	assert.Equal(t, 100.0, summary.MinAltitudeM)
	assert.Equal(t, 120.0, summary.MaxAltitudeM)
	// +10 up, -5 down, +15 up: only climbs count.
	assert.Equal(t, 25.0, summary.AltitudeGainM)
}

func TestSummarizeIgnoresOtherSessions(t *testing.T) {
	t.Parallel()
	store := newFakeLocationStore()
	base := time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(summaryPoint("mine", base, 51.5, 1.0, 100)))
	require.NoError(t, store.Append(summaryPoint("other", base, 40.0, 9.0, 2000)))

	summary, err := Summarize(store, "mine")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PointCount)
	assert.Equal(t, 1.0, summary.PeakSpeedMps)
}

func TestSummarizeStoreFailure(t *testing.T) {
	t.Parallel()
	store := &failingFetchStore{err: errors.New("db locked")}

	_, err := Summarize(store, "any")
	assert.Error(t, err)
}

type failingFetchStore struct {
	err error
}

func (f *failingFetchStore) Append(*LocationPoint) error { return f.err }

func (f *failingFetchStore) FetchOrdered(string) ([]*LocationPoint, error) {
	return nil, f.err
}

func (f *failingFetchStore) Count(string) (int, error) { return 0, f.err }
