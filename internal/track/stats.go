package track

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/waymark-data/tracklog/internal/geo"
)

// SessionSummary aggregates a session's persisted trajectory.
type SessionSummary struct {
	SessionID     string        `json:"session_id"`
	PointCount    int           `json:"point_count"`
	DistanceM     float64       `json:"distance_m"`
	Duration      time.Duration `json:"duration_ns"`
	AvgSpeedMps   float64       `json:"avg_speed_mps"`
	PeakSpeedMps  float64       `json:"peak_speed_mps"`
	P50SpeedMps   float64       `json:"p50_speed_mps"`
	P85SpeedMps   float64       `json:"p85_speed_mps"`
	P95SpeedMps   float64       `json:"p95_speed_mps"`
	MinAltitudeM  float64       `json:"min_altitude_m"`
	MaxAltitudeM  float64       `json:"max_altitude_m"`
	AltitudeGainM float64       `json:"altitude_gain_m"`
}

// Summarize computes a SessionSummary from a session's ordered points.
func Summarize(store LocationStore, sessionID string) (*SessionSummary, error) {
	points, err := store.FetchOrdered(sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch points for summary: %w", err)
	}

	summary := &SessionSummary{SessionID: sessionID, PointCount: len(points)}
	if len(points) == 0 {
		return summary, nil
	}

	speeds := make([]float64, 0, len(points))
	summary.MinAltitudeM = points[0].AltitudeM
	summary.MaxAltitudeM = points[0].AltitudeM

	var prev *LocationPoint
	for _, p := range points {
		speeds = append(speeds, p.SpeedMps)
		if p.SpeedMps > summary.PeakSpeedMps {
			summary.PeakSpeedMps = p.SpeedMps
		}
		if p.AltitudeM < summary.MinAltitudeM {
			summary.MinAltitudeM = p.AltitudeM
		}
		if p.AltitudeM > summary.MaxAltitudeM {
			summary.MaxAltitudeM = p.AltitudeM
		}
		if prev != nil {
			summary.DistanceM += geo.Distance(prev.Lat, prev.Lon, p.Lat, p.Lon)
			if climb := p.AltitudeM - prev.AltitudeM; climb > 0 {
				summary.AltitudeGainM += climb
			}
		}
		prev = p
	}

	summary.Duration = points[len(points)-1].Timestamp.Sub(points[0].Timestamp)
	summary.AvgSpeedMps = stat.Mean(speeds, nil)

	// Quantile requires sorted input; speeds are in timestamp order.
	sorted := append([]float64(nil), speeds...)
	sort.Float64s(sorted)
	summary.P50SpeedMps = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	summary.P85SpeedMps = stat.Quantile(0.85, stat.Empirical, sorted, nil)
	summary.P95SpeedMps = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	return summary, nil
}
