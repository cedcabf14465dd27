package session

import (
	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/path"
	"github.com/banshee-data/geoclaim/internal/polygon"
)

// Validate checks a closed walk. Rules run in order and the first failure
// wins: point count, walked distance, self-intersection, area. Area is
// reported for every verdict.
func Validate(pts []geo.Point, cfg Config) ValidationResult {
	res := ValidationResult{
		PointCount:     len(pts),
		WalkedDistance: path.WalkedDistance(pts),
		Area:           polygon.Area(pts),
	}
	if len(pts) >= 2 {
		res.ClosureDistance = geo.Distance(pts[0], pts[len(pts)-1])
	}

	switch {
	case res.PointCount < cfg.MinPoints:
		res.FailureReason = InsufficientPoints
	case res.WalkedDistance < cfg.MinWalkDistance:
		res.FailureReason = InsufficientDistance
	case polygon.HasSelfIntersectionWindow(pts, cfg.ExclusionSegments):
		res.FailureReason = SelfIntersection
	case res.Area < cfg.MinArea:
		res.FailureReason = InsufficientArea
	default:
		res.Passed = true
	}
	return res
}
