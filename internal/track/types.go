// Package track implements the tracking-session core: fix validation,
// coordinate smoothing, the session lifecycle state machine, and the
// ingestion coordinator that turns a noisy sensor stream into a persisted
// trajectory.
package track

import "time"

// CourseUnknown is the sentinel stored on a LocationPoint when the sensor
// reported no usable course.
const CourseUnknown = -1.0

// RawFix is a single positional reading as delivered by the sensor source.
// It is ephemeral: consumed by the pipeline and either discarded or promoted
// to a LocationPoint.
type RawFix struct {
	Lat       float64
	Lon       float64
	Timestamp time.Time
	AccuracyM float64 // Horizontal accuracy radius (meters); negative means invalid
	AltitudeM float64
	SpeedMps  float64 // May be negative when the sensor has no speed solution
	CourseDeg float64 // May be negative when the sensor has no course solution
}

// LocationPoint is the durable record of an accepted, persisted fix. It is
// immutable once created and belongs to exactly one session.
type LocationPoint struct {
	ID        string
	SessionID string
	Lat       float64
	Lon       float64
	Timestamp time.Time
	AccuracyM float64
	AltitudeM float64
	SpeedMps  float64 // Clamped >= 0
	CourseDeg float64 // Clamped >= 0, or CourseUnknown
}

// TrackingSession represents one tracking run. At most one session may have
// IsActive set at any time, system-wide; the Manager enforces this.
type TrackingSession struct {
	ID        string
	Narrative string
	StartTime time.Time
	EndTime   *time.Time // Set only on normal or recovered termination
	IsActive  bool
}
