// Package geo holds the geographic data model shared by the capture engine:
// points in decimal degrees, timestamped fixes, great-circle distance and
// latitude/longitude boxes built on orb.
package geo

import (
	"fmt"
	"time"
)

// Point is a position on the Earth in decimal degrees (WGS-84 unless a
// caller has explicitly converted it for display).
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within the legal latitude and
// longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// Fix is one reported position sample. Accuracy is the receiver's horizontal
// accuracy estimate in meters; zero means unknown.
type Fix struct {
	Point    Point     `json:"point"`
	Time     time.Time `json:"time"`
	Accuracy float64   `json:"accuracy_m,omitempty"`
	Source   string    `json:"source,omitempty"`
}

// Valid reports whether the fix carries usable coordinates.
func (f Fix) Valid() bool {
	return f.Point.Valid()
}

func (f Fix) String() string {
	return fmt.Sprintf("{%v @ %s}", f.Point, f.Time.Format(time.RFC3339))
}
