package track

// ScalarFilter is a single-channel recursive Bayesian estimator: a textbook
// scalar Kalman update with a fixed process-noise constant. One instance per
// (session, channel) pair; never shared across sessions or channels.
type ScalarFilter struct {
	processNoise float64
	initialized  bool
	mean         float64
	variance     float64
}

// NewScalarFilter creates an uninitialized filter. processNoise must be a
// small positive constant; non-positive values fall back to
// DefaultProcessNoise.
func NewScalarFilter(processNoise float64) *ScalarFilter {
	if processNoise <= 0 {
		processNoise = DefaultProcessNoise
	}
	return &ScalarFilter{processNoise: processNoise}
}

// Process folds one measurement into the estimate and returns the updated
// mean. The first call seeds the state with the measurement and returns it
// unchanged: no correction is possible without a prior.
func (f *ScalarFilter) Process(measurement, measurementNoise float64) float64 {
	if !f.initialized {
		f.initialized = true
		f.mean = measurement
		f.variance = measurementNoise
		return measurement
	}

	predictedVariance := f.variance + f.processNoise
	gain := predictedVariance / (predictedVariance + measurementNoise)
	f.mean += gain * (measurement - f.mean)
	f.variance = (1 - gain) * predictedVariance
	return f.mean
}

// Variance exposes the current estimate variance, mainly for convergence
// checks.
func (f *ScalarFilter) Variance() float64 { return f.variance }

// FixSmoother pairs one latitude and one longitude channel for a session.
type FixSmoother struct {
	lat *ScalarFilter
	lon *ScalarFilter
}

// NewFixSmoother creates fresh channels for a new session.
func NewFixSmoother(processNoise float64) *FixSmoother {
	return &FixSmoother{
		lat: NewScalarFilter(processNoise),
		lon: NewScalarFilter(processNoise),
	}
}

// Smooth denoises one accepted fix. The reported horizontal accuracy is used
// as the measurement noise for both channels.
func (s *FixSmoother) Smooth(fix RawFix) (lat, lon float64) {
	noise := fix.AccuracyM
	if noise <= 0 {
		noise = 1
	}
	return s.lat.Process(fix.Lat, noise), s.lon.Process(fix.Lon, noise)
}
