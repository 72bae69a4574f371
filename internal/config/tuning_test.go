package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.ClusterRadius == nil || *cfg.ClusterRadius != 0.5 {
		t.Errorf("Expected ClusterRadius 0.5, got %v", cfg.ClusterRadius)
	}
	if cfg.MinClusterSize == nil || *cfg.MinClusterSize != 3 {
		t.Errorf("Expected MinClusterSize 3, got %v", cfg.MinClusterSize)
	}
	if cfg.NaNCheck == nil || *cfg.NaNCheck != true {
		t.Errorf("Expected NaNCheck true, got %v", cfg.NaNCheck)
	}
	if len(cfg.Temperatures) != len(defaultTemperatures) {
		t.Errorf("Expected %d temperatures, got %d", len(defaultTemperatures), len(cfg.Temperatures))
	}

	// Test getter methods
	if cfg.GetMaxCandidates() != 100 {
		t.Errorf("GetMaxCandidates() = %d, want 100", cfg.GetMaxCandidates())
	}
	if cfg.GetDAFChi2Cutoff() != 1e5 {
		t.Errorf("GetDAFChi2Cutoff() = %f, want 1e5", cfg.GetDAFChi2Cutoff())
	}
	if cfg.GetMinPlaneWeight() != 0.5 {
		t.Errorf("GetMinPlaneWeight() = %f, want 0.5", cfg.GetMinPlaneWeight())
	}
	if cfg.GetDAFUnbiasedWeights() {
		t.Error("GetDAFUnbiasedWeights() = true, want false")
	}
	if temps := cfg.GetTemperatures(); len(temps) == 0 || cfg.GetDAFChi2Cutoff()/(2*temps[0]) > 10 {
		t.Errorf("first temperature %v too cold for cutoff %f", temps, cfg.GetDAFChi2Cutoff())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "cluster_radius": 0.25,
  "nominal_slope_x": 0.002,
  "min_cluster_size": 4,
  "temperatures": [30, 10, 1],
  "nan_check": false,
  "daf_unbiased_weights": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	if cfg.GetClusterRadius() != 0.25 {
		t.Errorf("GetClusterRadius() = %f, want 0.25", cfg.GetClusterRadius())
	}
	if cfg.GetNominalSlopeX() != 0.002 {
		t.Errorf("GetNominalSlopeX() = %f, want 0.002", cfg.GetNominalSlopeX())
	}
	if cfg.GetMinClusterSize() != 4 {
		t.Errorf("GetMinClusterSize() = %d, want 4", cfg.GetMinClusterSize())
	}
	if cfg.GetNaNCheck() != false {
		t.Errorf("GetNaNCheck() = %v, want false", cfg.GetNaNCheck())
	}
	if !cfg.GetDAFUnbiasedWeights() {
		t.Error("GetDAFUnbiasedWeights() = false, want true")
	}
	temps := cfg.GetTemperatures()
	if len(temps) != 3 || temps[0] != 30 || temps[2] != 1 {
		t.Errorf("GetTemperatures() = %v, want [30 10 1]", temps)
	}

	// Omitted fields fall back to defaults
	if cfg.GetMaxCandidates() != 100 {
		t.Errorf("GetMaxCandidates() = %d, want default 100", cfg.GetMaxCandidates())
	}
	if cfg.GetNominalSlopeY() != 0 {
		t.Errorf("GetNominalSlopeY() = %f, want default 0", cfg.GetNominalSlopeY())
	}
}

func TestGetTemperatures_ReturnsCopy(t *testing.T) {
	cfg := &TuningConfig{Temperatures: []float64{5, 1}}
	temps := cfg.GetTemperatures()
	temps[0] = 99
	if cfg.Temperatures[0] != 5 {
		t.Errorf("GetTemperatures() must not alias the config, got %v", cfg.Temperatures)
	}

	defaults := EmptyTuningConfig().GetTemperatures()
	defaults[0] = 99
	if defaultTemperatures[0] == 99 {
		t.Errorf("GetTemperatures() must not alias the default schedule")
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "config.txt", `{}`},
		{"malformed json", "bad.json", `{"cluster_radius": `},
		{"negative radius", "radius.json", `{"cluster_radius": -1}`},
		{"cluster size one", "size.json", `{"min_cluster_size": 1}`},
		{"empty schedule", "temps.json", `{"temperatures": []}`},
		{"zero temperature", "zero.json", `{"temperatures": [10, 0]}`},
		{"plane weight above one", "weight.json", `{"min_plane_weight": 1.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			if _, err := LoadTuningConfig(path); err == nil {
				t.Errorf("LoadTuningConfig(%s) expected error", tt.file)
			}
		})
	}

	if _, err := LoadTuningConfig(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("LoadTuningConfig(missing) expected error")
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Error("expected size error")
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetClusterRadius() != 0.5 {
		t.Errorf("GetClusterRadius() = %f, want 0.5", cfg.GetClusterRadius())
	}
	if cfg.GetMaxCandidates() != 100 {
		t.Errorf("GetMaxCandidates() = %d, want 100", cfg.GetMaxCandidates())
	}
	defaults := DefaultTuningConfig()
	if cfg.GetDAFChi2Cutoff() != defaults.GetDAFChi2Cutoff() {
		t.Errorf("shipped daf_chi2_cutoff = %f, want %f", cfg.GetDAFChi2Cutoff(), defaults.GetDAFChi2Cutoff())
	}
	if got, want := cfg.GetTemperatures(), defaults.GetTemperatures(); len(got) != len(want) || got[0] != want[0] {
		t.Errorf("shipped temperatures = %v, want %v", got, want)
	}
	if cfg.GetDAFUnbiasedWeights() {
		t.Error("shipped daf_unbiased_weights = true, want false")
	}
}
