// Package units provides shared constants and conversions for speed units.
package units

import (
	"fmt"
	"strings"
	"time"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

const (
	mpsToKPH = 3.6
	mpsToMPH = 2.2369362920544
)

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ParseUnit normalises a user supplied unit name.
func ParseUnit(s string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(s))
	if !IsValid(u) {
		return "", fmt.Errorf("invalid speed unit %q: expected one of %s", s, GetValidUnitsString())
	}
	return u, nil
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units return the input unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mpsToMPH
	case KMPH, KPH:
		return speedMPS * mpsToKPH
	default:
		return speedMPS
	}
}

// ConvertKPH converts a speed from kilometers per hour to the target units.
func ConvertKPH(speedKPH float64, targetUnits string) float64 {
	return ConvertSpeed(speedKPH/mpsToKPH, targetUnits)
}

// SpeedMPS returns the average speed covering meters in elapsed. It returns
// ok=false when elapsed is not positive.
func SpeedMPS(meters float64, elapsed time.Duration) (speed float64, ok bool) {
	if elapsed <= 0 {
		return 0, false
	}
	return meters / elapsed.Seconds(), true
}

// SpeedKPH is SpeedMPS expressed in kilometers per hour.
func SpeedKPH(meters float64, elapsed time.Duration) (float64, bool) {
	mps, ok := SpeedMPS(meters, elapsed)
	if !ok {
		return 0, false
	}
	return ConvertSpeed(mps, KPH), true
}
