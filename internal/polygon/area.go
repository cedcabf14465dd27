package polygon

import (
	"math"

	"github.com/banshee-data/geoclaim/internal/geo"
)

// Area returns the area enclosed by pts in square meters, treating the last
// point as joined back to the first.
//
// It sums (lon2-lon1)*(2+sin(lat1)+sin(lat2)) over every edge and scales by
// R²/2, the spherical-excess form of the shoelace formula. Each longitude
// step is taken the short way round, so loops across the antimeridian
// measure the same as anywhere else. The result is only meaningful for
// simple polygons; run HasSelfIntersection first.
func Area(pts []geo.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var total float64
	for i := range pts {
		p1 := pts[i]
		p2 := pts[(i+1)%len(pts)]
		dLon := radians(wrapLon(p2.Lon - p1.Lon))
		total += dLon * (2 + math.Sin(radians(p1.Lat)) + math.Sin(radians(p2.Lat)))
	}
	return math.Abs(total * geo.EarthRadiusMeters * geo.EarthRadiusMeters / 2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// wrapLon maps a longitude difference into (-180, 180].
func wrapLon(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}
