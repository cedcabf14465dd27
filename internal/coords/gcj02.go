// Package coords maps WGS-84 positions into the GCJ-02 frame used by
// regional map tiles. It is for display only; geometry checks must always run
// on the unconverted points.
package coords

import (
	"math"

	"github.com/banshee-data/geoclaim/internal/geo"
)

// Krasovsky 1940 ellipsoid.
const (
	semiMajorAxis = 6378245.0
	eccentricity2 = 0.00669342162296594323
)

// Region is the area inside which the offset is applied. Points outside it
// are returned unchanged.
var Region = geo.NewBox(0.8293, 55.8271, 72.004, 137.8347)

// OutOfRegion reports whether p lies outside Region.
func OutOfRegion(p geo.Point) bool {
	return !Region.Contains(p.Orb())
}

// Convert shifts a WGS-84 point into GCJ-02.
func Convert(p geo.Point) geo.Point {
	if OutOfRegion(p) {
		return p
	}
	dLat, dLon := delta(p)
	return geo.Point{Lat: p.Lat + dLat, Lon: p.Lon + dLon}
}

// ConvertPath converts every point of pts into a new slice.
func ConvertPath(pts []geo.Point) []geo.Point {
	out := make([]geo.Point, len(pts))
	if !Region.Intersects(geo.BoundingBox(pts)) {
		copy(out, pts)
		return out
	}
	for i, p := range pts {
		out[i] = Convert(p)
	}
	return out
}

// Revert is the single-step inverse of Convert. It evaluates the offset at
// the converted point and subtracts it, which is accurate to a few meters.
func Revert(p geo.Point) geo.Point {
	if OutOfRegion(p) {
		return p
	}
	dLat, dLon := delta(p)
	return geo.Point{Lat: p.Lat - dLat, Lon: p.Lon - dLon}
}

// delta returns the offset in degrees at p.
func delta(p geo.Point) (dLat, dLon float64) {
	x := p.Lon - 105.0
	y := p.Lat - 35.0
	dLat = transformLat(x, y)
	dLon = transformLon(x, y)

	radLat := p.Lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - eccentricity2*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccentricity2)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return dLat, dLon
}

func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
