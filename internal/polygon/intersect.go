// Package polygon provides the geometry run on a closed walk: a planar
// self-intersection test and a spherical-excess area estimate.
package polygon

import "github.com/banshee-data/geoclaim/internal/geo"

// DefaultExclusionSegments is the number of segments at each end of the walk
// that are never tested against each other. The closing stretch of a loop
// runs back alongside the opening stretch, and comparing the two reports
// crossings that are only the loop meeting itself.
const DefaultExclusionSegments = 2

// HasSelfIntersection reports whether the walk crosses itself, using the
// default exclusion window.
func HasSelfIntersection(pts []geo.Point) bool {
	return HasSelfIntersectionWindow(pts, DefaultExclusionSegments)
}

// HasSelfIntersectionWindow tests every pair of non-adjacent segments
// (i,i+1) and (j,j+1), j >= i+2, skipping pairs where i falls in the first
// window segments and j in the last window segments.
//
// Longitude is treated as X and latitude as Y in degrees, after unrolling
// longitudes around the first point so a walk across the antimeridian stays
// contiguous. That is a planar approximation: it is only sound for loops
// small enough that the meridians are effectively parallel, which holds for
// anything walked on foot.
func HasSelfIntersectionWindow(pts []geo.Point, window int) bool {
	if len(pts) < 4 {
		return false
	}
	pts = unroll(pts)
	window = max(window, 0)
	segments := len(pts) - 1
	for i := 0; i < segments; i++ {
		for j := i + 2; j < segments; j++ {
			if i < window && j >= segments-window {
				continue
			}
			if segmentsIntersect(pts[i], pts[i+1], pts[j], pts[j+1]) {
				return true
			}
		}
	}
	return false
}

// ccw reports whether p, q, r turn counter-clockwise.
func ccw(p, q, r geo.Point) bool {
	return (r.Lat-p.Lat)*(q.Lon-p.Lon) > (q.Lat-p.Lat)*(r.Lon-p.Lon)
}

// segmentsIntersect is the orientation test for segments ab and cd. Fully
// collinear segments are never reported as crossing.
func segmentsIntersect(a, b, c, d geo.Point) bool {
	return ccw(a, c, d) != ccw(b, c, d) && ccw(a, b, c) != ccw(a, b, d)
}

// unroll returns a copy of pts whose longitudes are each within 180 degrees
// of the first point's.
func unroll(pts []geo.Point) []geo.Point {
	out := make([]geo.Point, len(pts))
	ref := pts[0].Lon
	for i, p := range pts {
		out[i] = geo.Point{Lat: p.Lat, Lon: ref + wrapLon(p.Lon-ref)}
	}
	return out
}
