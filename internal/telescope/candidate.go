package telescope

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// FitStatus records how the last annealed fit of a candidate ended.
type FitStatus string

const (
	FitPending    FitStatus = "pending"    // Candidate not fitted yet this event
	FitConverged  FitStatus = "converged"  // Full temperature schedule completed
	FitDegenerate FitStatus = "degenerate" // Effective ndof collapsed to ≤ 0
	FitNonFinite  FitStatus = "non_finite" // NaN/Inf appeared in an estimate
)

// Residual is the unbiased residual of the assigned measurement on a plane,
// together with the combined (resolution + track) variance per axis.
type Residual struct {
	Plane int
	Hit   MeasurementRef
	DX    float64
	DY    float64
	VarX  float64
	VarY  float64
}

// TrackCandidate is one track hypothesis for the current event. Candidates
// are pooled by the TrackerSystem and reused across events.
type TrackCandidate struct {
	// Weights holds the DAF soft assignment: one entry per measurement on
	// each plane, indexed [plane][measurement].
	Weights [][]float64

	// Estimates holds the smoothed track state at every plane.
	Estimates []TrackEstimate

	Chi2   float64
	NDOF   float64
	Status FitStatus

	residuals []Residual
	minWeight float64
}

func newTrackCandidate(nPlanes int) *TrackCandidate {
	return &TrackCandidate{
		Weights:   make([][]float64, nPlanes),
		Estimates: make([]TrackEstimate, nPlanes),
		residuals: make([]Residual, 0, nPlanes),
		Status:    FitPending,
	}
}

// reset sizes the weight lists to the planes' current measurement counts
// and zeroes every weight and result.
func (c *TrackCandidate) reset(planes []*Plane, minWeight float64) {
	for i, p := range planes {
		n := len(p.measurements)
		if cap(c.Weights[i]) < n {
			c.Weights[i] = make([]float64, n)
		}
		c.Weights[i] = c.Weights[i][:n]
		for j := range c.Weights[i] {
			c.Weights[i][j] = 0
		}
		c.Estimates[i] = TrackEstimate{}
	}
	c.Chi2 = 0
	c.NDOF = 0
	c.Status = FitPending
	c.residuals = c.residuals[:0]
	c.minWeight = minWeight
}

// TotalWeight returns the sum of the candidate's weights on plane i.
func (c *TrackCandidate) TotalWeight(plane int) float64 {
	var s float64
	for _, w := range c.Weights[plane] {
		s += w
	}
	return s
}

// Assigned returns the highest-weight measurement on the plane, provided
// its weight exceeds the configured minimum plane weight.
func (c *TrackCandidate) Assigned(plane int) MeasurementRef {
	best := -1
	bestW := c.minWeight
	for j, w := range c.Weights[plane] {
		if w > bestW {
			best = j
			bestW = w
		}
	}
	if best < 0 {
		return NoMeasurement
	}
	return RefTo(best)
}

// Residuals returns the unbiased residuals of the assigned measurements
// computed by the last fit, in plane order.
func (c *TrackCandidate) Residuals() []Residual {
	return c.residuals
}

// Chi2PerNDOF returns chi2/ndof, or +Inf when ndof is not positive.
func (c *TrackCandidate) Chi2PerNDOF() float64 {
	if c.NDOF <= 0 {
		return math.Inf(1)
	}
	return c.Chi2 / c.NDOF
}

// Probability returns the chi-square survival probability of the fit.
// Fits without positive degrees of freedom have probability zero.
func (c *TrackCandidate) Probability() float64 {
	if c.NDOF <= 0 || !isFinite(c.Chi2) {
		return 0
	}
	return distuv.ChiSquared{K: c.NDOF}.Survival(c.Chi2)
}

// HasNaN reports whether any smoothed estimate or the chi2/ndof pair is
// not finite.
func (c *TrackCandidate) HasNaN() bool {
	if !isFinite(c.Chi2) || !isFinite(c.NDOF) {
		return true
	}
	for i := range c.Estimates {
		if c.Estimates[i].HasNaN() {
			return true
		}
	}
	return false
}
