// Package path holds the ordered sequence of accepted samples for a capture
// session. Insertion order is capture order; nothing is ever reordered or
// deduplicated here.
package path

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/geoclaim/internal/geo"
)

// Store is an append-only path. Readers receive copies so geometry code never
// observes a path being extended underneath it.
type Store struct {
	mu     sync.RWMutex
	points []geo.Point
}

// NewStore returns an empty store with room for capacity points.
func NewStore(capacity int) *Store {
	return &Store{points: make([]geo.Point, 0, max(capacity, 0))}
}

// Append adds p to the end of the path.
func (s *Store) Append(p geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
}

// Snapshot returns a copy of the path in capture order.
func (s *Store) Snapshot() []geo.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]geo.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Clear discards every point.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = s.points[:0]
}

// Count returns the number of points.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// First returns the earliest point, if any.
func (s *Store) First() (geo.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.points) == 0 {
		return geo.Point{}, false
	}
	return s.points[0], true
}

// Last returns the most recent point, if any.
func (s *Store) Last() (geo.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.points) == 0 {
		return geo.Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// ClosureDistance is the great-circle distance from the first point to the
// last, or 0 for paths shorter than two points.
func (s *Store) ClosureDistance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.points) < 2 {
		return 0
	}
	return geo.Distance(s.points[0], s.points[len(s.points)-1])
}

// WalkedDistance is the sum of distances between consecutive points.
func (s *Store) WalkedDistance() float64 {
	return WalkedDistance(s.Snapshot())
}

// WalkedDistance sums the great-circle legs of pts. It does not close the
// loop back to the first point.
func WalkedDistance(pts []geo.Point) float64 {
	legs := Legs(pts)
	if len(legs) == 0 {
		return 0
	}
	return floats.Sum(legs)
}

// Legs returns the distance of every consecutive leg in meters.
func Legs(pts []geo.Point) []float64 {
	if len(pts) < 2 {
		return nil
	}
	legs := make([]float64, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		legs[i-1] = geo.Distance(pts[i-1], pts[i])
	}
	return legs
}
