package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tracker values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the tracker tuning parameters of a run.
// Every field is optional; the Get* accessors supply defaults for
// anything the file leaves out.
type TuningConfig struct {
	// Candidate finder params
	ClusterRadius  *float64 `json:"cluster_radius,omitempty"` // mm
	NominalSlopeX  *float64 `json:"nominal_slope_x,omitempty"`
	NominalSlopeY  *float64 `json:"nominal_slope_y,omitempty"`
	MinClusterSize *int     `json:"min_cluster_size,omitempty"`
	MaxCandidates  *int     `json:"max_candidates,omitempty"`

	// DAF params
	DAFChi2Cutoff      *float64  `json:"daf_chi2_cutoff,omitempty"`
	DAFUnbiasedWeights *bool     `json:"daf_unbiased_weights,omitempty"`
	Temperatures       []float64 `json:"temperatures,omitempty"`
	NaNCheck           *bool     `json:"nan_check,omitempty"`

	// Acceptance params
	AcceptMinNDOF     *float64 `json:"accept_min_ndof,omitempty"`
	AcceptMaxChi2NDOF *float64 `json:"accept_max_chi2_ndof,omitempty"`
	AcceptMinPlanes   *int     `json:"accept_min_planes,omitempty"`
	MinPlaneWeight    *float64 `json:"min_plane_weight,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// defaultTemperatures is the coarse-to-fine annealing schedule used when
// the tuning file does not provide one. The first step is hot enough that
// a candidate seeded with a far outlier keeps positive ndof, given the
// default chi2 cutoff of 1e5 (cutoff/2T0 = 5).
var defaultTemperatures = []float64{1e4, 3e3, 1e3, 300, 100, 30, 10, 3, 1, 1, 1, 0.5}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		ClusterRadius:      ptrFloat64(empty.GetClusterRadius()),
		NominalSlopeX:      ptrFloat64(empty.GetNominalSlopeX()),
		NominalSlopeY:      ptrFloat64(empty.GetNominalSlopeY()),
		MinClusterSize:     ptrInt(empty.GetMinClusterSize()),
		MaxCandidates:      ptrInt(empty.GetMaxCandidates()),
		DAFChi2Cutoff:      ptrFloat64(empty.GetDAFChi2Cutoff()),
		DAFUnbiasedWeights: ptrBool(empty.GetDAFUnbiasedWeights()),
		Temperatures:       empty.GetTemperatures(),
		NaNCheck:           ptrBool(empty.GetNaNCheck()),
		AcceptMinNDOF:      ptrFloat64(empty.GetAcceptMinNDOF()),
		AcceptMaxChi2NDOF:  ptrFloat64(empty.GetAcceptMaxChi2NDOF()),
		AcceptMinPlanes:    ptrInt(empty.GetAcceptMinPlanes()),
		MinPlaneWeight:     ptrFloat64(empty.GetMinPlaneWeight()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/telescope/monitor/
		"../../../../" + DefaultConfigPath, // deeper packages
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
	if c.ClusterRadius != nil && *c.ClusterRadius <= 0 {
		return fmt.Errorf("cluster_radius must be positive, got %f", *c.ClusterRadius)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 2 {
		return fmt.Errorf("min_cluster_size must be at least 2, got %d", *c.MinClusterSize)
	}
	if c.MaxCandidates != nil && *c.MaxCandidates < 1 {
		return fmt.Errorf("max_candidates must be at least 1, got %d", *c.MaxCandidates)
	}
	if c.DAFChi2Cutoff != nil && *c.DAFChi2Cutoff < 0 {
		return fmt.Errorf("daf_chi2_cutoff must be non-negative, got %f", *c.DAFChi2Cutoff)
	}
	if c.Temperatures != nil {
		if len(c.Temperatures) == 0 {
			return fmt.Errorf("temperatures must not be empty")
		}
		for i, t := range c.Temperatures {
			if t <= 0 {
				return fmt.Errorf("temperatures[%d] must be positive, got %f", i, t)
			}
		}
	}
	if c.AcceptMinPlanes != nil && *c.AcceptMinPlanes < 0 {
		return fmt.Errorf("accept_min_planes must be non-negative, got %d", *c.AcceptMinPlanes)
	}
	if c.MinPlaneWeight != nil {
		if *c.MinPlaneWeight < 0 || *c.MinPlaneWeight > 1 {
			return fmt.Errorf("min_plane_weight must be between 0 and 1, got %f", *c.MinPlaneWeight)
		}
	}
	return nil
}

// GetClusterRadius returns the cluster_radius value or the default.
func (c *TuningConfig) GetClusterRadius() float64 {
	if c.ClusterRadius == nil {
		return 0.5 // default
	}
	return *c.ClusterRadius
}

// GetNominalSlopeX returns the nominal_slope_x value or the default.
func (c *TuningConfig) GetNominalSlopeX() float64 {
	if c.NominalSlopeX == nil {
		return 0
	}
	return *c.NominalSlopeX
}

// GetNominalSlopeY returns the nominal_slope_y value or the default.
func (c *TuningConfig) GetNominalSlopeY() float64 {
	if c.NominalSlopeY == nil {
		return 0
	}
	return *c.NominalSlopeY
}

// GetMinClusterSize returns the min_cluster_size value or the default.
func (c *TuningConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return 3 // default
	}
	return *c.MinClusterSize
}

// GetMaxCandidates returns the max_candidates value or the default.
func (c *TuningConfig) GetMaxCandidates() int {
	if c.MaxCandidates == nil {
		return 100 // default
	}
	return *c.MaxCandidates
}

// GetDAFChi2Cutoff returns the daf_chi2_cutoff value or the default.
func (c *TuningConfig) GetDAFChi2Cutoff() float64 {
	if c.DAFChi2Cutoff == nil {
		return 1e5 // default
	}
	return *c.DAFChi2Cutoff
}

// GetDAFUnbiasedWeights returns the daf_unbiased_weights value or the default.
func (c *TuningConfig) GetDAFUnbiasedWeights() bool {
	if c.DAFUnbiasedWeights == nil {
		return false // default
	}
	return *c.DAFUnbiasedWeights
}

// GetTemperatures returns a copy of the annealing schedule or the default.
func (c *TuningConfig) GetTemperatures() []float64 {
	src := c.Temperatures
	if len(src) == 0 {
		src = defaultTemperatures
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// GetNaNCheck returns the nan_check value or the default.
func (c *TuningConfig) GetNaNCheck() bool {
	if c.NaNCheck == nil {
		return true // default
	}
	return *c.NaNCheck
}

// GetAcceptMinNDOF returns the accept_min_ndof value or the default.
func (c *TuningConfig) GetAcceptMinNDOF() float64 {
	if c.AcceptMinNDOF == nil {
		return 1 // default
	}
	return *c.AcceptMinNDOF
}

// GetAcceptMaxChi2NDOF returns the accept_max_chi2_ndof value or the default.
func (c *TuningConfig) GetAcceptMaxChi2NDOF() float64 {
	if c.AcceptMaxChi2NDOF == nil {
		return 10 // default
	}
	return *c.AcceptMaxChi2NDOF
}

// GetAcceptMinPlanes returns the accept_min_planes value or the default.
func (c *TuningConfig) GetAcceptMinPlanes() int {
	if c.AcceptMinPlanes == nil {
		return 3 // default
	}
	return *c.AcceptMinPlanes
}

// GetMinPlaneWeight returns the min_plane_weight value or the default.
func (c *TuningConfig) GetMinPlaneWeight() float64 {
	if c.MinPlaneWeight == nil {
		return 0.5 // default
	}
	return *c.MinPlaneWeight
}
