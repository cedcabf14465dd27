package geo

import "github.com/paulmach/orb"

// Orb returns p as an orb point, which orders longitude first.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb is the inverse of Point.Orb.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

// NewBox returns the latitude/longitude rectangle with the given edges.
// Boxes that cross the antimeridian are not supported.
func NewBox(minLat, maxLat, minLon, maxLon float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

// BoundingBox returns the smallest box containing every point. The result
// is empty (IsEmpty reports true) for an empty slice.
func BoundingBox(pts []Point) orb.Bound {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = p.Orb()
	}
	return mp.Bound()
}

// Bounds is the JSON form of a bounding box.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// BoundsOf converts b for JSON output. It returns nil for an empty bound.
func BoundsOf(b orb.Bound) *Bounds {
	if b.IsEmpty() {
		return nil
	}
	return &Bounds{Min: FromOrb(b.Min), Max: FromOrb(b.Max)}
}
