package track

import "github.com/waymark-data/tracklog/internal/geo"

// RejectReason identifies which gate discarded a fix.
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectInvalidAccuracy RejectReason = "invalid accuracy"
	RejectPoorAccuracy    RejectReason = "poor accuracy"
	RejectTooFrequent     RejectReason = "too frequent"
	RejectImpossibleSpeed RejectReason = "impossible speed"
	RejectDistanceJump    RejectReason = "distance jump"
)

// Decision is the outcome of validating one fix.
type Decision struct {
	Accepted bool
	Reason   RejectReason

	// DistanceM and ImpliedSpeedMps are the anomaly metrics computed against
	// the prior accepted fix, when one exists and time advanced. Zero
	// otherwise.
	DistanceM       float64
	ImpliedSpeedMps float64
}

// ValidateFix evaluates one raw fix against the prior accepted fix under the
// given config. Pure: same inputs always produce the same decision.
//
// Gates run in order: invalid accuracy, accuracy ceiling, temporal throttle,
// then anomaly metrics (implied speed, displacement). The throttle runs
// before the anomaly gate so rapid-succession fixes, the common case during
// a GPS burst, are discarded without computing great-circle distance.
func ValidateFix(fix RawFix, last *RawFix, cfg ValidationConfig) Decision {
	if fix.AccuracyM < 0 {
		return Decision{Reason: RejectInvalidAccuracy}
	}
	if fix.AccuracyM > cfg.MaxHorizontalAccuracyM {
		return Decision{Reason: RejectPoorAccuracy}
	}

	if last == nil {
		return Decision{Accepted: true}
	}

	elapsed := fix.Timestamp.Sub(last.Timestamp)
	if elapsed < cfg.MinTimeBetweenFixes {
		return Decision{Reason: RejectTooFrequent}
	}

	if elapsed <= 0 {
		return Decision{Accepted: true}
	}

	d := geo.Distance(last.Lat, last.Lon, fix.Lat, fix.Lon)
	speed := d / elapsed.Seconds()
	if speed > cfg.MaxReasonableSpeedMps {
		return Decision{Reason: RejectImpossibleSpeed, DistanceM: d, ImpliedSpeedMps: speed}
	}
	if d > cfg.MaxDistanceJumpM {
		return Decision{Reason: RejectDistanceJump, DistanceM: d, ImpliedSpeedMps: speed}
	}

	return Decision{Accepted: true, DistanceM: d, ImpliedSpeedMps: speed}
}
