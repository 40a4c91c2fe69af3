package track

import "time"

// ValidationConfig selects the thresholds for accuracy gating, throttling,
// anomaly rejection, and the persistence distance gate. It is chosen once at
// session start and is immutable for the session's lifetime.
type ValidationConfig struct {
	Name string // Preset name, informational

	MaxHorizontalAccuracyM float64       // Fixes less accurate than this are rejected
	MaxReasonableSpeedMps  float64       // Implied speed above this is an anomaly
	MaxDistanceJumpM       float64       // Displacement above this is an anomaly
	MinTimeBetweenFixes    time.Duration // Temporal throttle between accepted fixes

	// MinDistanceBetweenFixesM gates persistence (not validity): an accepted
	// fix closer than this to the last persisted point is not written. Nil
	// disables the gate.
	MinDistanceBetweenFixesM *float64

	// AdaptiveSampling relaxes the distance gate when instantaneous speed is
	// below SlowSpeedCutoffMps, preserving detail during slow movement.
	AdaptiveSampling   bool
	SlowSpeedCutoffMps float64

	// Smoothing runs each accepted fix through the per-channel recursive
	// estimator before persistence. ProcessNoise is the filter's fixed
	// process-noise constant.
	Smoothing    bool
	ProcessNoise float64
}

// DefaultProcessNoise is the process-noise constant used by all presets.
const DefaultProcessNoise = 1e-5

// DefaultSlowSpeedCutoffMps relaxes the distance gate below brisk walking
// pace. Tunable per deployment; presets start here.
const DefaultSlowSpeedCutoffMps = 1.4

func metersPtr(m float64) *float64 { return &m }

// PresetPrecise favours trajectory detail: tight accuracy gate, no distance
// gate, high sampling rate.
func PresetPrecise() ValidationConfig {
	return ValidationConfig{
		Name:                   "precise",
		MaxHorizontalAccuracyM: 20,
		MaxReasonableSpeedMps:  69,
		MaxDistanceJumpM:       500,
		MinTimeBetweenFixes:    time.Second,
		AdaptiveSampling:       true,
		SlowSpeedCutoffMps:     DefaultSlowSpeedCutoffMps,
		Smoothing:              true,
		ProcessNoise:           DefaultProcessNoise,
	}
}

// PresetBalanced trades some density for storage: moderate gates with a 50 m
// persistence spacing.
func PresetBalanced() ValidationConfig {
	return ValidationConfig{
		Name:                     "balanced",
		MaxHorizontalAccuracyM:   50,
		MaxReasonableSpeedMps:    69,
		MaxDistanceJumpM:         1000,
		MinTimeBetweenFixes:      5 * time.Second,
		MinDistanceBetweenFixesM: metersPtr(50),
		AdaptiveSampling:         true,
		SlowSpeedCutoffMps:       DefaultSlowSpeedCutoffMps,
		Smoothing:                true,
		ProcessNoise:             DefaultProcessNoise,
	}
}

// PresetEfficient minimises writes for multi-hour sessions: loose accuracy
// gate, wide spacing, no smoothing.
func PresetEfficient() ValidationConfig {
	return ValidationConfig{
		Name:                     "efficient",
		MaxHorizontalAccuracyM:   100,
		MaxReasonableSpeedMps:    69,
		MaxDistanceJumpM:         2000,
		MinTimeBetweenFixes:      15 * time.Second,
		MinDistanceBetweenFixesM: metersPtr(200),
		AdaptiveSampling:         false,
		SlowSpeedCutoffMps:       DefaultSlowSpeedCutoffMps,
		Smoothing:                false,
		ProcessNoise:             DefaultProcessNoise,
	}
}

// PresetByName resolves a preset name. Unknown names fall back to the
// balanced preset.
func PresetByName(name string) ValidationConfig {
	switch name {
	case "precise":
		return PresetPrecise()
	case "efficient":
		return PresetEfficient()
	default:
		return PresetBalanced()
	}
}
