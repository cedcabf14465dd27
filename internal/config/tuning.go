package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the capture and validation thresholds. Every field is
// optional; the Get* methods fall back to the built-in defaults, so partial
// files are safe.
type TuningConfig struct {
	// Sampling
	SampleInterval *string `json:"sample_interval,omitempty"` // duration string like "2s"
	EventLogSize   *int    `json:"event_log_size,omitempty"`

	// Filtering
	MinDistanceM     *float64 `json:"min_distance_m,omitempty"`
	AdvisorySpeedKmh *float64 `json:"advisory_speed_kmh,omitempty"`
	FatalSpeedKmh    *float64 `json:"fatal_speed_kmh,omitempty"`

	// Closure
	ClosureMinPoints *int     `json:"closure_min_points,omitempty"`
	ClosureDistanceM *float64 `json:"closure_distance_m,omitempty"`

	// Validation
	MinPoints                     *int     `json:"min_points,omitempty"`
	MinWalkDistanceM              *float64 `json:"min_walk_distance_m,omitempty"`
	MinAreaM2                     *float64 `json:"min_area_m2,omitempty"`
	IntersectionExclusionSegments *int     `json:"intersection_exclusion_segments,omitempty"`
}

// Built-in defaults, mirrored by config/tuning.defaults.json.
const (
	defaultSampleInterval                = 2 * time.Second
	defaultEventLogSize                  = 200
	defaultMinDistanceM                  = 10.0
	defaultAdvisorySpeedKmh              = 15.0
	defaultFatalSpeedKmh                 = 30.0
	defaultClosureMinPoints              = 10
	defaultClosureDistanceM              = 30.0
	defaultMinPoints                     = 10
	defaultMinWalkDistanceM              = 50.0
	defaultMinAreaM2                     = 100.0
	defaultIntersectionExclusionSegments = 2
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		SampleInterval:                ptrString(defaultSampleInterval.String()),
		EventLogSize:                  ptrInt(defaultEventLogSize),
		MinDistanceM:                  ptrFloat64(defaultMinDistanceM),
		AdvisorySpeedKmh:              ptrFloat64(defaultAdvisorySpeedKmh),
		FatalSpeedKmh:                 ptrFloat64(defaultFatalSpeedKmh),
		ClosureMinPoints:              ptrInt(defaultClosureMinPoints),
		ClosureDistanceM:              ptrFloat64(defaultClosureDistanceM),
		MinPoints:                     ptrInt(defaultMinPoints),
		MinWalkDistanceM:              ptrFloat64(defaultMinWalkDistanceM),
		MinAreaM2:                     ptrFloat64(defaultMinAreaM2),
		IntersectionExclusionSegments: ptrInt(defaultIntersectionExclusionSegments),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SampleInterval != nil && *c.SampleInterval != "" {
		d, err := time.ParseDuration(*c.SampleInterval)
		if err != nil {
			return fmt.Errorf("invalid sample_interval '%s': %w", *c.SampleInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("sample_interval must be positive, got %s", d)
		}
	}

	for name, v := range map[string]*float64{
		"min_distance_m":      c.MinDistanceM,
		"closure_distance_m":  c.ClosureDistanceM,
		"min_walk_distance_m": c.MinWalkDistanceM,
		"min_area_m2":         c.MinAreaM2,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"closure_min_points":              c.ClosureMinPoints,
		"min_points":                      c.MinPoints,
		"intersection_exclusion_segments": c.IntersectionExclusionSegments,
		"event_log_size":                  c.EventLogSize,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}

	if c.AdvisorySpeedKmh != nil && *c.AdvisorySpeedKmh <= 0 {
		return fmt.Errorf("advisory_speed_kmh must be positive, got %f", *c.AdvisorySpeedKmh)
	}
	if c.GetFatalSpeedKmh() < c.GetAdvisorySpeedKmh() {
		return fmt.Errorf("fatal_speed_kmh (%f) must not be below advisory_speed_kmh (%f)",
			c.GetFatalSpeedKmh(), c.GetAdvisorySpeedKmh())
	}

	return nil
}

// GetSampleInterval parses and returns the SampleInterval as a time.Duration.
func (c *TuningConfig) GetSampleInterval() time.Duration {
	if c.SampleInterval == nil || *c.SampleInterval == "" {
		return defaultSampleInterval
	}
	d, err := time.ParseDuration(*c.SampleInterval)
	if err != nil || d <= 0 {
		return defaultSampleInterval // default on parse error
	}
	return d
}

// GetEventLogSize returns the event_log_size value or the default.
func (c *TuningConfig) GetEventLogSize() int {
	if c.EventLogSize == nil {
		return defaultEventLogSize
	}
	return *c.EventLogSize
}

// GetMinDistanceM returns the min_distance_m value or the default.
func (c *TuningConfig) GetMinDistanceM() float64 {
	if c.MinDistanceM == nil {
		return defaultMinDistanceM
	}
	return *c.MinDistanceM
}

// GetAdvisorySpeedKmh returns the advisory_speed_kmh value or the default.
func (c *TuningConfig) GetAdvisorySpeedKmh() float64 {
	if c.AdvisorySpeedKmh == nil {
		return defaultAdvisorySpeedKmh
	}
	return *c.AdvisorySpeedKmh
}

// GetFatalSpeedKmh returns the fatal_speed_kmh value or the default.
func (c *TuningConfig) GetFatalSpeedKmh() float64 {
	if c.FatalSpeedKmh == nil {
		return defaultFatalSpeedKmh
	}
	return *c.FatalSpeedKmh
}

// GetClosureMinPoints returns the closure_min_points value or the default.
func (c *TuningConfig) GetClosureMinPoints() int {
	if c.ClosureMinPoints == nil {
		return defaultClosureMinPoints
	}
	return *c.ClosureMinPoints
}

// GetClosureDistanceM returns the closure_distance_m value or the default.
func (c *TuningConfig) GetClosureDistanceM() float64 {
	if c.ClosureDistanceM == nil {
		return defaultClosureDistanceM
	}
	return *c.ClosureDistanceM
}

// GetMinPoints returns the min_points value or the default.
func (c *TuningConfig) GetMinPoints() int {
	if c.MinPoints == nil {
		return defaultMinPoints
	}
	return *c.MinPoints
}

// GetMinWalkDistanceM returns the min_walk_distance_m value or the default.
func (c *TuningConfig) GetMinWalkDistanceM() float64 {
	if c.MinWalkDistanceM == nil {
		return defaultMinWalkDistanceM
	}
	return *c.MinWalkDistanceM
}

// GetMinAreaM2 returns the min_area_m2 value or the default.
func (c *TuningConfig) GetMinAreaM2() float64 {
	if c.MinAreaM2 == nil {
		return defaultMinAreaM2
	}
	return *c.MinAreaM2
}

// GetIntersectionExclusionSegments returns the intersection_exclusion_segments
// value or the default.
func (c *TuningConfig) GetIntersectionExclusionSegments() int {
	if c.IntersectionExclusionSegments == nil {
		return defaultIntersectionExclusionSegments
	}
	return *c.IntersectionExclusionSegments
}
