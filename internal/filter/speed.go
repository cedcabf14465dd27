package filter

import (
	"fmt"
	"time"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/units"
)

// Default speed thresholds in km/h.
const (
	DefaultAdvisorySpeedKPH = 15.0
	DefaultFatalSpeedKPH    = 30.0
)

// SpeedLevel classifies a single sampling tick.
type SpeedLevel int

const (
	SpeedNone SpeedLevel = iota
	SpeedAdvisory
	SpeedFatal
)

func (l SpeedLevel) String() string {
	switch l {
	case SpeedNone:
		return "none"
	case SpeedAdvisory:
		return "advisory"
	case SpeedFatal:
		return "fatal"
	default:
		return fmt.Sprintf("SpeedLevel(%d)", int(l))
	}
}

// SpeedWarning is the transient result of a speed check. SpeedKPH is only
// meaningful when Level is not SpeedNone. ClockSkew marks a Fatal raised
// because the candidate was not stamped after the last fix, where no finite
// speed exists.
type SpeedWarning struct {
	Level     SpeedLevel `json:"level"`
	SpeedKPH  float64    `json:"speed_kph,omitempty"`
	ClockSkew bool       `json:"clock_skew,omitempty"`
}

// MarshalText lets the level appear as a word in JSON status payloads.
func (l SpeedLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (w SpeedWarning) String() string {
	if w.Level == SpeedNone {
		return "none"
	}
	if w.ClockSkew {
		return fmt.Sprintf("%s (timestamp not after last fix)", w.Level)
	}
	return fmt.Sprintf("%s (%.1f km/h)", w.Level, w.SpeedKPH)
}

// SpeedGuard classifies instantaneous speed between two accepted samples.
type SpeedGuard struct {
	AdvisoryKPH float64
	FatalKPH    float64
}

// NewSpeedGuard returns a guard with the given thresholds; non-positive
// values select the defaults.
func NewSpeedGuard(advisoryKPH, fatalKPH float64) SpeedGuard {
	if advisoryKPH <= 0 {
		advisoryKPH = DefaultAdvisorySpeedKPH
	}
	if fatalKPH <= 0 {
		fatalKPH = DefaultFatalSpeedKPH
	}
	return SpeedGuard{AdvisoryKPH: advisoryKPH, FatalKPH: fatalKPH}
}

// Classify computes the speed from last to candidate. A candidate stamped
// before last, or at the same instant but elsewhere, moved infinitely fast
// and is Fatal.
func (g SpeedGuard) Classify(candidate geo.Point, candidateTime time.Time, last geo.Point, lastTime time.Time) SpeedWarning {
	meters := geo.Distance(candidate, last)
	elapsed := candidateTime.Sub(lastTime)
	if elapsed < 0 || (elapsed == 0 && meters > 0) {
		return SpeedWarning{Level: SpeedFatal, ClockSkew: true}
	}
	kph, ok := units.SpeedKPH(meters, elapsed)
	if !ok {
		return SpeedWarning{Level: SpeedNone}
	}
	switch {
	case kph > g.FatalKPH:
		return SpeedWarning{Level: SpeedFatal, SpeedKPH: kph}
	case kph > g.AdvisoryKPH:
		return SpeedWarning{Level: SpeedAdvisory, SpeedKPH: kph}
	default:
		return SpeedWarning{Level: SpeedNone}
	}
}
