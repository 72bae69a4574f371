package telescope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig returns a deterministic tracker configuration. The chi2
// cutoff is large relative to the first temperature so that a lone hit
// on a plane keeps most of its weight while hot.
func testConfig() TrackerConfig {
	return TrackerConfig{
		ClusterRadius:     0.1,
		NominalSlopeX:     0.001,
		NominalSlopeY:     0,
		MinClusterSize:    3,
		MaxCandidates:     10,
		Chi2Cutoff:        1e6,
		Temperatures:      []float64{1e5, 1e4, 1e3, 100, 10, 1},
		NaNCheck:          true,
		AcceptMinNDOF:     1,
		AcceptMaxChi2NDOF: 10,
		AcceptMinPlanes:   3,
		MinPlaneWeight:    0.5,
	}
}

// newFourPlaneSystem builds planes at z = 0, 100, 200, 300 mm with
// 10 µm resolution.
func newFourPlaneSystem(t *testing.T, cfg TrackerConfig, scatter float64) *TrackerSystem {
	t.Helper()
	sys := NewTrackerSystem(cfg)
	for i, z := range []float64{0, 100, 200, 300} {
		require.NoError(t, sys.AddPlane(i, z, 0.01, 0.01, scatter, false))
	}
	require.NoError(t, sys.Init())
	return sys
}

// addLine puts one hit on every plane on the line x = x0 + tx·z, y = y0 + ty·z.
func addLine(t *testing.T, sys *TrackerSystem, x0, tx, y0, ty float64, firstSource int) {
	t.Helper()
	for i, p := range sys.Planes() {
		require.NoError(t, sys.AddMeasurement(i, x0+tx*p.Z, y0+ty*p.Z, p.Z, true, firstSource+i))
	}
}

type weightRecord struct {
	iteration   int
	temperature float64
	plane       int
	weights     []float64
	total       float64
}

// recordingCollector keeps every weight vector the estimator reports.
type recordingCollector struct {
	weights []weightRecord
	ndof    []float64
}

func (r *recordingCollector) IsEnabled() bool { return true }

func (r *recordingCollector) RecordWeights(iteration int, temperature float64, plane int, weights []float64, total float64) {
	r.weights = append(r.weights, weightRecord{
		iteration:   iteration,
		temperature: temperature,
		plane:       plane,
		weights:     append([]float64(nil), weights...),
		total:       total,
	})
}

func (r *recordingCollector) RecordNDOF(iteration int, temperature float64, ndof float64) {
	r.ndof = append(r.ndof, ndof)
}

// mul4 returns a·b.
func mul4(a, b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var s float64
			for k := 0; k < stateDim; k++ {
				s += a[i*stateDim+k] * b[k*stateDim+j]
			}
			out[i*stateDim+j] = s
		}
	}
	return out
}

func transpose4(a Mat4) Mat4 {
	var out Mat4
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			out[j*stateDim+i] = a[i*stateDim+j]
		}
	}
	return out
}
