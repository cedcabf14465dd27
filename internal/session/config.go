package session

import (
	"time"

	"github.com/banshee-data/geoclaim/internal/config"
	"github.com/banshee-data/geoclaim/internal/filter"
	"github.com/banshee-data/geoclaim/internal/polygon"
)

// Config holds the thresholds a session applies. Distances are in meters,
// speeds in km/h and areas in square meters.
type Config struct {
	SampleInterval time.Duration

	MinDistance float64
	AdvisoryKPH float64
	FatalKPH    float64

	ClosureMinPoints int
	ClosureDistance  float64

	MinPoints         int
	MinWalkDistance   float64
	MinArea           float64
	ExclusionSegments int

	EventLogSize int
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		SampleInterval:    2 * time.Second,
		MinDistance:       filter.DefaultMinDistanceMeters,
		AdvisoryKPH:       filter.DefaultAdvisorySpeedKPH,
		FatalKPH:          filter.DefaultFatalSpeedKPH,
		ClosureMinPoints:  10,
		ClosureDistance:   30,
		MinPoints:         10,
		MinWalkDistance:   50,
		MinArea:           100,
		ExclusionSegments: polygon.DefaultExclusionSegments,
		EventLogSize:      200,
	}
}

// ConfigFromTuning builds a Config from a TuningConfig. Fields the tuning
// file omits take their defaults through the Get* accessors.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		SampleInterval:    cfg.GetSampleInterval(),
		MinDistance:       cfg.GetMinDistanceM(),
		AdvisoryKPH:       cfg.GetAdvisorySpeedKmh(),
		FatalKPH:          cfg.GetFatalSpeedKmh(),
		ClosureMinPoints:  cfg.GetClosureMinPoints(),
		ClosureDistance:   cfg.GetClosureDistanceM(),
		MinPoints:         cfg.GetMinPoints(),
		MinWalkDistance:   cfg.GetMinWalkDistanceM(),
		MinArea:           cfg.GetMinAreaM2(),
		ExclusionSegments: cfg.GetIntersectionExclusionSegments(),
		EventLogSize:      cfg.GetEventLogSize(),
	}
}
