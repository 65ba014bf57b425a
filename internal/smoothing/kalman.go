// Package smoothing wraps github.com/llm-inferno/kalman-filter's scalar
// filter to smooth noisy, repeated measurements (the feature extractor's
// reference speeds) the same way the teacher corpus smooths
// cache-hit-rate with an EMA (sim/routing_adaptive.go). A proper Kalman
// filter is used instead of a hand-rolled EMA since the dependency is
// already one hop away via the model-tuner stack.
package smoothing

import (
	kalman "github.com/llm-inferno/kalman-filter"
)

// Estimator smooths a scalar signal across repeated Observe calls. It is
// not safe for concurrent use; the tuner only ever touches one per
// pipeline context.
type Estimator struct {
	filter    *kalman.Filter1D
	primed    bool
	lastValue float64
}

// NewEstimator builds an estimator with a fixed process/measurement
// noise. Values mirror the kind of slow-varying, moderately-noisy signal a
// per-chunk timing measurement is: a small process variance (the true
// value drifts slowly between chunks) and a larger measurement variance
// (wall-clock jitter dominates any single measurement).
func NewEstimator() *Estimator {
	return &Estimator{filter: kalman.NewFilter1D(1e-4, 1e-2)}
}

// Observe feeds in a new raw measurement and returns the filtered estimate.
// The first call primes the filter with the raw value and returns it
// unchanged.
func (e *Estimator) Observe(value float64) float64 {
	if !e.primed {
		e.filter.Initialize(value, 1.0)
		e.primed = true
		e.lastValue = value
		return value
	}
	e.lastValue = e.filter.Update(value)
	return e.lastValue
}

// Value returns the last filtered estimate, or zero if Observe was never
// called.
func (e *Estimator) Value() float64 {
	return e.lastValue
}
