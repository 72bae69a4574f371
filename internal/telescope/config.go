package telescope

import (
	"fmt"

	"github.com/banshee-data/teletrack/internal/config"
)

// TrackerConfig holds the plain numeric parameters of the tracker.
type TrackerConfig struct {
	// Candidate finder
	ClusterRadius  float64 // Projected-plane cluster radius (mm)
	NominalSlopeX  float64 // Beam dx/dz removed before clustering
	NominalSlopeY  float64 // Beam dy/dz removed before clustering
	MinClusterSize int     // Minimum absorbed hits per candidate (≥ 2)
	MaxCandidates  int     // Candidate pool size per event

	// DAF
	Chi2Cutoff      float64   // Null-hypothesis chi2 per plane
	UnbiasedWeights bool      // Weigh hits against the estimate excluding their own plane
	Temperatures    []float64 // Annealing schedule, applied in order
	NaNCheck        bool      // Reject candidates whose estimates go non-finite

	// Acceptance
	AcceptMinNDOF     float64 // Reject below this ndof
	AcceptMaxChi2NDOF float64 // Reject above this chi2/ndof
	AcceptMinPlanes   int     // Active planes that must carry MinPlaneWeight
	MinPlaneWeight    float64 // Plane total weight counted as "hit"
}

// DefaultTrackerConfig returns tracker configuration loaded from the
// canonical tuning defaults file (config/tuning.defaults.json).
// Panics if the file cannot be found; intended for tests and binaries
// that have already validated config availability.
func DefaultTrackerConfig() TrackerConfig {
	cfg := config.MustLoadDefaultConfig()
	return TrackerConfigFromTuning(cfg)
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		ClusterRadius:     cfg.GetClusterRadius(),
		NominalSlopeX:     cfg.GetNominalSlopeX(),
		NominalSlopeY:     cfg.GetNominalSlopeY(),
		MinClusterSize:    cfg.GetMinClusterSize(),
		MaxCandidates:     cfg.GetMaxCandidates(),
		Chi2Cutoff:        cfg.GetDAFChi2Cutoff(),
		UnbiasedWeights:   cfg.GetDAFUnbiasedWeights(),
		Temperatures:      cfg.GetTemperatures(),
		NaNCheck:          cfg.GetNaNCheck(),
		AcceptMinNDOF:     cfg.GetAcceptMinNDOF(),
		AcceptMaxChi2NDOF: cfg.GetAcceptMaxChi2NDOF(),
		AcceptMinPlanes:   cfg.GetAcceptMinPlanes(),
		MinPlaneWeight:    cfg.GetMinPlaneWeight(),
	}
}

// Validate reports parameter combinations the tracker cannot run with.
func (c TrackerConfig) Validate() error {
	switch {
	case c.ClusterRadius <= 0:
		return fmt.Errorf("%w: cluster radius must be positive, got %g", ErrInvalidConfiguration, c.ClusterRadius)
	case c.MinClusterSize < 2:
		return fmt.Errorf("%w: minimum cluster size must be at least 2, got %d", ErrInvalidConfiguration, c.MinClusterSize)
	case c.MaxCandidates < 1:
		return fmt.Errorf("%w: maximum candidate count must be at least 1, got %d", ErrInvalidConfiguration, c.MaxCandidates)
	case len(c.Temperatures) == 0:
		return fmt.Errorf("%w: empty annealing schedule", ErrInvalidConfiguration)
	}
	for i, t := range c.Temperatures {
		if t <= 0 || !isFinite(t) {
			return fmt.Errorf("%w: temperature %d must be positive, got %g", ErrInvalidConfiguration, i, t)
		}
	}
	return nil
}
