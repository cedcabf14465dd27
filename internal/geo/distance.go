package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusMeters is the mean Earth radius of the spherical area formula.
// Distances use orb's equatorial radius instead.
const EarthRadiusMeters = 6371000.0

// MetersPerDegreeLat is the length of one degree of latitude on the sphere
// Distance measures on.
const MetersPerDegreeLat = orb.EarthRadius * math.Pi / 180

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle (haversine) distance between a and b in
// meters.
func Distance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(a.Orb(), b.Orb())
}

// Offset returns the point reached by moving north and east meters from
// origin on a local flat-earth approximation. Accurate to well under a
// centimeter over the few hundred meters of a walked loop.
func Offset(origin Point, north, east float64) Point {
	dLat := north / MetersPerDegreeLat
	dLon := east / (MetersPerDegreeLat * math.Cos(toRadians(origin.Lat)))
	return Point{Lat: origin.Lat + dLat, Lon: origin.Lon + dLon}
}
