package telescope

import "math"

// weightEpsilon keeps the DAF normalisation finite when every weight on
// a plane underflows.
const weightEpsilon = 1e-30

// trackParams is the number of free parameters of the straight-line model.
const trackParams = 4

// Estimator runs the forward/backward information filter over all planes
// and re-weights the hits of the active planes by deterministic annealing.
// Scratch buffers are sized once by newEstimator and reused per candidate.
type Estimator struct {
	planes []*Plane
	active []int
	isAct  []bool

	chi2Cutoff float64

	// unbiasedWeights weighs hits against the estimate that excludes their
	// own plane instead of the smoothed one.
	unbiasedWeights bool

	forwardPred []infoEstimate // predicted at i, before plane i's hits
	forward     []infoEstimate // filtered at i, including plane i's hits
	backward    []infoEstimate // backward prediction at i, planes > i only

	smoothed   []TrackEstimate
	unbiased   []TrackEstimate
	unbiasedOK []bool

	debug DebugCollector
}

func newEstimator(planes []*Plane, active []int, chi2Cutoff float64, unbiasedWeights bool) *Estimator {
	n := len(planes)
	isAct := make([]bool, n)
	for _, i := range active {
		isAct[i] = true
	}
	return &Estimator{
		planes:      planes,
		active:      active,
		isAct:       isAct,
		chi2Cutoff:  chi2Cutoff,

		unbiasedWeights: unbiasedWeights,
		forwardPred: make([]infoEstimate, n),
		forward:     make([]infoEstimate, n),
		backward:    make([]infoEstimate, n),
		smoothed:    make([]TrackEstimate, n),
		unbiased:    make([]TrackEstimate, n),
		unbiasedOK:  make([]bool, n),
	}
}

// Pass runs one forward and one backward sweep with the planes' current
// weights and fills the smoothed and unbiased estimates. It returns false
// if any smoothed estimate is not finite.
//
// Every state carries the slope leaving its plane, so both sweeps apply
// the scattering of the plane they are leaving before propagating.
func (est *Estimator) Pass() bool {
	planes := est.planes
	n := len(planes)

	var e infoEstimate
	for i, p := range planes {
		if i > 0 {
			e.shift(p.Z - planes[i-1].Z)
		}
		e.scatter(p.ScatterVariance)
		est.forwardPred[i] = e
		if est.isAct[i] {
			e.addPlane(p)
		}
		est.forward[i] = e
	}

	e = infoEstimate{}
	for i := n - 1; i >= 0; i-- {
		p := planes[i]
		est.backward[i] = e
		if est.isAct[i] {
			e.addPlane(p)
		}
		e.scatter(p.ScatterVariance)
		if i > 0 {
			e.shift(planes[i-1].Z - p.Z)
		}
	}

	finite := true
	for i := 0; i < n; i++ {
		s := combine(&est.forward[i], &est.backward[i])
		est.smoothed[i], _ = s.estimate()
		if est.smoothed[i].HasNaN() {
			finite = false
		}
		u := combine(&est.forwardPred[i], &est.backward[i])
		est.unbiased[i], est.unbiasedOK[i] = u.estimate()
		if est.unbiasedOK[i] && est.unbiased[i].HasNaN() {
			est.unbiasedOK[i] = false
		}
	}
	return finite
}

// reference returns the estimate hits on plane i are weighted against:
// the smoothed estimate, or the unbiased one when unbiasedWeights is set
// and it could be formed.
func (est *Estimator) reference(i int) *TrackEstimate {
	if est.unbiasedWeights && est.unbiasedOK[i] {
		return &est.unbiased[i]
	}
	return &est.smoothed[i]
}

// residualReference returns the estimate residuals on plane i are taken
// against: the unbiased estimate when it exists, else the smoothed one.
func (est *Estimator) residualReference(i int) *TrackEstimate {
	if est.unbiasedOK[i] {
		return &est.unbiased[i]
	}
	return &est.smoothed[i]
}

// hitChi2 returns the two-dimensional chi-square of measurement m on plane
// i against ref, using the combined variance of the plane resolution and
// the track's positional covariance.
func hitChi2(p *Plane, m Measurement, ref *TrackEstimate) (chi2, dx, dy, vx, vy float64) {
	dx = m.X - ref.Params[idxX]
	dy = m.Y - ref.Params[idxY]
	vx = p.SigmaX*p.SigmaX + ref.Cov.At(idxX, idxX)
	vy = p.SigmaY*p.SigmaY + ref.Cov.At(idxY, idxY)
	return dx*dx/vx + dy*dy/vy, dx, dy, vx, vy
}

// Reweight recomputes the weight of every hit on every active plane at
// temperature t:
//
//	w(m) = exp(−χ²(m)/2t) / (exp(−χ²cut/2t) + Σ exp(−χ²/2t) + ε)
//
// The cutoff term is the probability that no hit on the plane belongs to
// the track, so each plane's total weight stays below one.
func (est *Estimator) Reweight(t float64) {
	cut := math.Exp(-est.chi2Cutoff / (2 * t))
	for _, i := range est.active {
		p := est.planes[i]
		ref := est.reference(i)
		var sum float64
		for j, m := range p.measurements {
			chi2, _, _, _, _ := hitChi2(p, m, ref)
			w := math.Exp(-chi2 / (2 * t))
			p.weights[j] = w
			sum += w
		}
		norm := cut + sum + weightEpsilon
		p.totalWeight = 0
		for j := range p.weights {
			p.weights[j] /= norm
			p.totalWeight += p.weights[j]
		}
	}
}

// weightedPlanes counts the active planes with non-zero total weight. A
// straight line needs measurements on at least two of them.
func (est *Estimator) weightedPlanes() int {
	n := 0
	for _, i := range est.active {
		if est.planes[i].totalWeight > 0 {
			n++
		}
	}
	return n
}

// NDOF returns the effective degrees of freedom, 2·Σ totalWeight − 4,
// summed over the active planes.
func (est *Estimator) NDOF() float64 {
	var sum float64
	for _, i := range est.active {
		sum += est.planes[i].totalWeight
	}
	return 2*sum - trackParams
}

// Chi2 returns Σ w(m)·χ²(m) over every hit on the active planes against the
// estimates of the last pass.
func (est *Estimator) Chi2() float64 {
	var chi2 float64
	for _, i := range est.active {
		p := est.planes[i]
		ref := est.reference(i)
		for j, m := range p.measurements {
			w := p.weights[j]
			if w == 0 {
				continue
			}
			c, _, _, _, _ := hitChi2(p, m, ref)
			chi2 += w * c
		}
	}
	return chi2
}

// Anneal runs the full pass/re-weight cycle once per temperature, each
// step feeding the previous step's weights forward. It stops early when
// the effective degrees of freedom collapse, fewer than two planes carry
// weight, or an estimate goes non-finite.
func (est *Estimator) Anneal(temperatures []float64) FitStatus {
	for it, t := range temperatures {
		if !est.Pass() {
			if est.weightedPlanes() < 2 {
				return FitDegenerate
			}
			return FitNonFinite
		}
		est.Reweight(t)
		ndof := est.NDOF()
		if est.debug != nil && est.debug.IsEnabled() {
			for _, i := range est.active {
				p := est.planes[i]
				est.debug.RecordWeights(it, t, i, p.weights, p.totalWeight)
			}
			est.debug.RecordNDOF(it, t, ndof)
		}
		if ndof <= 0 {
			return FitDegenerate
		}
	}
	return FitConverged
}

// Smoothed returns the smoothed estimate at plane i from the last pass.
func (est *Estimator) Smoothed(i int) TrackEstimate {
	return est.smoothed[i]
}

// HasNaN reports whether any smoothed estimate of the last pass contains
// NaN or ±Inf.
func (est *Estimator) HasNaN() bool {
	for i := range est.smoothed {
		if est.smoothed[i].HasNaN() {
			return true
		}
	}
	return false
}
