package linefit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightPlanes(sigma, scatter float64) []Plane {
	return []Plane{
		{Z: 0, SigmaX: sigma, SigmaY: sigma, ScatterVariance: scatter},
		{Z: 100, SigmaX: sigma, SigmaY: sigma, ScatterVariance: scatter},
		{Z: 200, SigmaX: sigma, SigmaY: sigma, ScatterVariance: scatter},
		{Z: 300, SigmaX: sigma, SigmaY: sigma, ScatterVariance: scatter},
	}
}

func TestFit_ExactLine(t *testing.T) {
	t.Parallel()
	planes := straightPlanes(0.01, 0)
	points := make([]Point, len(planes))
	for i, p := range planes {
		points[i] = Point{X: 0.001 * p.Z, Y: 0.5 - 0.002*p.Z, Weight: 1}
	}

	res, err := Fit(planes, points)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Chi2, 1e-12)
	assert.InDelta(t, 4, res.NDOF, 1e-12)
	for i, s := range res.States {
		assert.InDelta(t, 0.001*planes[i].Z, s.X, 1e-9)
		assert.InDelta(t, 0.5-0.002*planes[i].Z, s.Y, 1e-9)
		assert.InDelta(t, 0.001, s.SlopeX, 1e-12)
		assert.InDelta(t, -0.002, s.SlopeY, 1e-12)
	}
}

func TestFit_MatchesOrdinaryRegressionWithoutScattering(t *testing.T) {
	t.Parallel()
	planes := straightPlanes(0.02, 0)
	xs := []float64{0.01, 0.09, 0.22, 0.29}
	points := make([]Point, len(planes))
	for i := range planes {
		points[i] = Point{X: xs[i], Weight: 1}
	}

	res, err := Fit(planes, points)
	require.NoError(t, err)

	// Closed-form unweighted regression (equal sigmas).
	var sz, sx, szz, szx float64
	for i, p := range planes {
		sz += p.Z
		sx += xs[i]
		szz += p.Z * p.Z
		szx += p.Z * xs[i]
	}
	n := float64(len(planes))
	slope := (n*szx - sz*sx) / (n*szz - sz*sz)
	intercept := (sx - slope*sz) / n

	for i, s := range res.States {
		assert.InDelta(t, intercept+slope*planes[i].Z, s.X, 1e-12)
		assert.InDelta(t, slope, s.SlopeX, 1e-12)
	}
	assert.Greater(t, res.Chi2, 0.0)
}

func TestFit_KinkAbsorbsBreak(t *testing.T) {
	t.Parallel()
	// A large scattering variance at plane 1 lets the track bend there
	// almost for free.
	planes := []Plane{
		{Z: 0, SigmaX: 0.01, SigmaY: 0.01},
		{Z: 100, SigmaX: 0.01, SigmaY: 0.01, ScatterVariance: 1},
		{Z: 200, SigmaX: 0.01, SigmaY: 0.01},
		{Z: 300, SigmaX: 0.01, SigmaY: 0.01},
	}
	points := []Point{
		{X: 0, Weight: 1},
		{X: 0.1, Weight: 1},
		{X: 0.3, Weight: 1},
		{X: 0.5, Weight: 1},
	}
	res, err := Fit(planes, points)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, res.States[0].SlopeX, 1e-5)
	assert.InDelta(t, 0.002, res.States[1].SlopeX, 1e-5)
	assert.InDelta(t, 0.002, res.States[3].SlopeX, 1e-5)
	assert.Less(t, res.Chi2, 1e-3)
}

func TestFit_UnmeasuredPlaneIsInterpolated(t *testing.T) {
	t.Parallel()
	planes := straightPlanes(0.01, 0)
	points := []Point{
		{X: 0, Weight: 1},
		{},
		{X: 0.2, Weight: 1},
		{X: 0.3, Weight: 1},
	}
	res, err := Fit(planes, points)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, res.States[1].X, 1e-9)
	assert.InDelta(t, 2, res.NDOF, 1e-12)
}

func TestFit_Errors(t *testing.T) {
	t.Parallel()

	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := Fit(straightPlanes(0.01, 0), make([]Point, 3))
		assert.Error(t, err)
	})

	t.Run("single measured plane", func(t *testing.T) {
		t.Parallel()
		points := make([]Point, 4)
		points[2] = Point{X: 1, Weight: 1}
		_, err := Fit(straightPlanes(0.01, 0), points)
		assert.ErrorIs(t, err, ErrSingular)
	})
}
