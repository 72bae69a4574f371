package telescope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackCandidate_Assigned(t *testing.T) {
	t.Parallel()
	c := newTrackCandidate(3)
	c.minWeight = 0.5
	c.Weights[0] = []float64{0.1, 0.8, 0.05}
	c.Weights[1] = []float64{0.3, 0.4}
	c.Weights[2] = nil

	j, ok := c.Assigned(0).Index()
	assert.True(t, ok)
	assert.Equal(t, 1, j)
	assert.InDelta(t, 0.95, c.TotalWeight(0), 1e-12)

	assert.False(t, c.Assigned(1).Present())
	assert.False(t, c.Assigned(2).Present())
	assert.Zero(t, c.TotalWeight(2))
}

func TestTrackCandidate_Probability(t *testing.T) {
	t.Parallel()
	c := newTrackCandidate(1)

	c.Chi2, c.NDOF = 4, 4
	assert.InDelta(t, 0.40601, c.Probability(), 1e-5)
	assert.InDelta(t, 1, c.Chi2PerNDOF(), 1e-12)

	c.Chi2, c.NDOF = 0, 0
	assert.Zero(t, c.Probability())
	assert.True(t, math.IsInf(c.Chi2PerNDOF(), 1))

	c.Chi2, c.NDOF = math.NaN(), 4
	assert.Zero(t, c.Probability())
	assert.True(t, c.HasNaN())
}

func TestTrackCandidate_ResetReusesStorage(t *testing.T) {
	t.Parallel()
	planes := []*Plane{{}, {}}
	planes[0].addMeasurement(Measurement{X: 1})
	planes[0].addMeasurement(Measurement{X: 2})

	c := newTrackCandidate(2)
	c.reset(planes, 0.5)
	c.Weights[0][1] = 1
	c.Chi2 = 3
	c.Status = FitConverged

	c.reset(planes, 0.5)
	assert.Equal(t, []float64{0, 0}, c.Weights[0])
	assert.Empty(t, c.Weights[1])
	assert.Zero(t, c.Chi2)
	assert.Equal(t, FitPending, c.Status)
	assert.Empty(t, c.Residuals())
}

func TestMeasurementRef(t *testing.T) {
	t.Parallel()
	_, ok := NoMeasurement.Index()
	assert.False(t, ok)
	assert.False(t, NoMeasurement.Present())

	r := RefTo(0)
	i, ok := r.Index()
	assert.True(t, ok)
	assert.Zero(t, i)
	assert.True(t, r.Present())
}
