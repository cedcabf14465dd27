package units

import (
	"math"
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false}, // Case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "mps, mph, kmph, kph"
	if result := GetValidUnitsString(); result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestParseUnit(t *testing.T) {
	got, err := ParseUnit(" KPH ")
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if got != KPH {
		t.Errorf("ParseUnit = %q, want %q", got, KPH)
	}
	if _, err := ParseUnit("furlongs"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		unit     string
		expected float64
	}{
		{"1 m/s to mps", 1.0, MPS, 1.0},
		{"1 m/s to mph", 1.0, MPH, 2.2369362920544},
		{"1 m/s to kmph", 1.0, KMPH, 3.6},
		{"5 m/s to kph", 5.0, KPH, 18.0},
		{"unknown unit passes through", 4.2, "knots", 4.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.unit)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestConvertKPH(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{KPH, 36},
		{KMPH, 36},
		{MPS, 10},
		{MPH, 22.369362920544},
	}
	for _, tt := range tests {
		if got := ConvertKPH(36, tt.unit); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertKPH(36, %s) = %f, want %f", tt.unit, got, tt.want)
		}
	}
}

func TestSpeedKPH(t *testing.T) {
	// 10 m in 2 s is 5 m/s, 18 km/h
	got, ok := SpeedKPH(10, 2*time.Second)
	if !ok || math.Abs(got-18) > 1e-9 {
		t.Errorf("SpeedKPH(10, 2s) = %f, %v; want 18, true", got, ok)
	}

	for _, elapsed := range []time.Duration{0, -time.Second} {
		if _, ok := SpeedKPH(10, elapsed); ok {
			t.Errorf("SpeedKPH(10, %v) should not be ok", elapsed)
		}
	}
}
