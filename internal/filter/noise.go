// Package filter holds the per-sample gates applied to incoming fixes before
// they reach the path: a minimum-distance noise filter and a speed guard
// that flags vehicle-speed movement.
package filter

import "github.com/banshee-data/geoclaim/internal/geo"

// DefaultMinDistanceMeters is the default jitter threshold.
const DefaultMinDistanceMeters = 10.0

// NoiseFilter rejects samples that sit within MinDistance of the last
// accepted sample. Raw fixes wander several meters at rest, so without it a
// stationary walker accumulates points and can close a loop of zero size.
type NoiseFilter struct {
	MinDistance float64 // meters
}

// NewNoiseFilter returns a filter with the given threshold; non-positive
// values select DefaultMinDistanceMeters.
func NewNoiseFilter(minDistance float64) NoiseFilter {
	if minDistance <= 0 {
		minDistance = DefaultMinDistanceMeters
	}
	return NoiseFilter{MinDistance: minDistance}
}

// Accept reports whether candidate should be kept. The first point of a
// path (last == nil) is always accepted.
func (f NoiseFilter) Accept(candidate geo.Point, last *geo.Point) bool {
	if last == nil {
		return true
	}
	return geo.Distance(candidate, *last) >= f.MinDistance
}
