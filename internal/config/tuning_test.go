package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.SampleInterval == nil || *cfg.SampleInterval != "2s" {
		t.Errorf("Expected SampleInterval '2s', got %v", cfg.SampleInterval)
	}
	if cfg.MinDistanceM == nil || *cfg.MinDistanceM != 10 {
		t.Errorf("Expected MinDistanceM 10, got %v", cfg.MinDistanceM)
	}

	if cfg.GetSampleInterval() != 2*time.Second {
		t.Errorf("GetSampleInterval() = %v, want 2s", cfg.GetSampleInterval())
	}
	if cfg.GetAdvisorySpeedKmh() != 15 {
		t.Errorf("GetAdvisorySpeedKmh() = %f, want 15", cfg.GetAdvisorySpeedKmh())
	}
	if cfg.GetFatalSpeedKmh() != 30 {
		t.Errorf("GetFatalSpeedKmh() = %f, want 30", cfg.GetFatalSpeedKmh())
	}
	if cfg.GetClosureMinPoints() != 10 {
		t.Errorf("GetClosureMinPoints() = %d, want 10", cfg.GetClosureMinPoints())
	}
	if cfg.GetClosureDistanceM() != 30 {
		t.Errorf("GetClosureDistanceM() = %f, want 30", cfg.GetClosureDistanceM())
	}
	if cfg.GetMinPoints() != 10 {
		t.Errorf("GetMinPoints() = %d, want 10", cfg.GetMinPoints())
	}
	if cfg.GetMinWalkDistanceM() != 50 {
		t.Errorf("GetMinWalkDistanceM() = %f, want 50", cfg.GetMinWalkDistanceM())
	}
	if cfg.GetMinAreaM2() != 100 {
		t.Errorf("GetMinAreaM2() = %f, want 100", cfg.GetMinAreaM2())
	}
	if cfg.GetIntersectionExclusionSegments() != 2 {
		t.Errorf("GetIntersectionExclusionSegments() = %d, want 2", cfg.GetIntersectionExclusionSegments())
	}
	if cfg.GetEventLogSize() != 200 {
		t.Errorf("GetEventLogSize() = %d, want 200", cfg.GetEventLogSize())
	}
}

func TestEmptyConfigMatchesDefaults(t *testing.T) {
	empty := EmptyTuningConfig()
	def := DefaultTuningConfig()

	if empty.GetSampleInterval() != def.GetSampleInterval() {
		t.Errorf("sample interval: %v != %v", empty.GetSampleInterval(), def.GetSampleInterval())
	}
	if empty.GetMinDistanceM() != def.GetMinDistanceM() {
		t.Errorf("min distance: %v != %v", empty.GetMinDistanceM(), def.GetMinDistanceM())
	}
	if empty.GetClosureDistanceM() != def.GetClosureDistanceM() {
		t.Errorf("closure distance: %v != %v", empty.GetClosureDistanceM(), def.GetClosureDistanceM())
	}
	if empty.GetMinAreaM2() != def.GetMinAreaM2() {
		t.Errorf("min area: %v != %v", empty.GetMinAreaM2(), def.GetMinAreaM2())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultTuningConfig()

	if cfg.GetSampleInterval() != def.GetSampleInterval() {
		t.Errorf("GetSampleInterval() = %v, want %v", cfg.GetSampleInterval(), def.GetSampleInterval())
	}
	if cfg.GetFatalSpeedKmh() != def.GetFatalSpeedKmh() {
		t.Errorf("GetFatalSpeedKmh() = %v, want %v", cfg.GetFatalSpeedKmh(), def.GetFatalSpeedKmh())
	}
	if cfg.GetClosureMinPoints() != def.GetClosureMinPoints() {
		t.Errorf("GetClosureMinPoints() = %v, want %v", cfg.GetClosureMinPoints(), def.GetClosureMinPoints())
	}
	if cfg.GetIntersectionExclusionSegments() != def.GetIntersectionExclusionSegments() {
		t.Errorf("GetIntersectionExclusionSegments() = %v, want %v",
			cfg.GetIntersectionExclusionSegments(), def.GetIntersectionExclusionSegments())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "sample_interval": "1s",
  "min_distance_m": 5,
  "closure_distance_m": 20,
  "min_area_m2": 250
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetSampleInterval() != time.Second {
		t.Errorf("GetSampleInterval() = %v, want 1s", cfg.GetSampleInterval())
	}
	if cfg.GetMinDistanceM() != 5 {
		t.Errorf("GetMinDistanceM() = %f, want 5", cfg.GetMinDistanceM())
	}
	if cfg.GetClosureDistanceM() != 20 {
		t.Errorf("GetClosureDistanceM() = %f, want 20", cfg.GetClosureDistanceM())
	}
	if cfg.GetMinAreaM2() != 250 {
		t.Errorf("GetMinAreaM2() = %f, want 250", cfg.GetMinAreaM2())
	}
	// omitted fields keep their defaults
	if cfg.GetFatalSpeedKmh() != 30 {
		t.Errorf("GetFatalSpeedKmh() = %f, want 30", cfg.GetFatalSpeedKmh())
	}
	if cfg.FatalSpeedKmh != nil {
		t.Errorf("Expected FatalSpeedKmh nil, got %v", *cfg.FatalSpeedKmh)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), ".json") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadTuningConfigTooLarge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "big.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(configPath, big, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "min_distance_m": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigFailsValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_values.json")
	if err := os.WriteFile(configPath, []byte(`{"closure_min_points": -4}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "closure_min_points") {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "invalid sample interval",
			cfg:     &TuningConfig{SampleInterval: ptrString("often")},
			wantErr: true,
		},
		{
			name:    "zero sample interval",
			cfg:     &TuningConfig{SampleInterval: ptrString("0s")},
			wantErr: true,
		},
		{
			name:    "negative min distance",
			cfg:     &TuningConfig{MinDistanceM: ptrFloat64(-1)},
			wantErr: true,
		},
		{
			name:    "negative min area",
			cfg:     &TuningConfig{MinAreaM2: ptrFloat64(-0.5)},
			wantErr: true,
		},
		{
			name:    "negative exclusion window",
			cfg:     &TuningConfig{IntersectionExclusionSegments: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero advisory speed",
			cfg:     &TuningConfig{AdvisorySpeedKmh: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "fatal below advisory",
			cfg:     &TuningConfig{AdvisorySpeedKmh: ptrFloat64(20), FatalSpeedKmh: ptrFloat64(10)},
			wantErr: true,
		},
		{
			name:    "fatal equal to advisory",
			cfg:     &TuningConfig{AdvisorySpeedKmh: ptrFloat64(20), FatalSpeedKmh: ptrFloat64(20)},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSampleInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "500 milliseconds",
			cfg:  &TuningConfig{SampleInterval: ptrString("500ms")},
			want: 500 * time.Millisecond,
		},
		{
			name: "nil uses default",
			cfg:  &TuningConfig{},
			want: 2 * time.Second,
		},
		{
			name: "empty string uses default",
			cfg:  &TuningConfig{SampleInterval: ptrString("")},
			want: 2 * time.Second,
		},
		{
			name: "invalid uses default",
			cfg:  &TuningConfig{SampleInterval: ptrString("invalid")},
			want: 2 * time.Second,
		},
		{
			name: "negative uses default",
			cfg:  &TuningConfig{SampleInterval: ptrString("-3s")},
			want: 2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetSampleInterval()
			if got != tt.want {
				t.Errorf("GetSampleInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}
