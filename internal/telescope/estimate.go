package telescope

import "math"

// TrackEstimate is the linear track state at one plane: position (x, y),
// slopes (dx/dz, dy/dz) and their covariance.
type TrackEstimate struct {
	Params Vec4
	Cov    Mat4
}

// X returns the estimated x position.
func (e TrackEstimate) X() float64 { return e.Params[idxX] }

// Y returns the estimated y position.
func (e TrackEstimate) Y() float64 { return e.Params[idxY] }

// SlopeX returns the estimated dx/dz.
func (e TrackEstimate) SlopeX() float64 { return e.Params[idxTX] }

// SlopeY returns the estimated dy/dz.
func (e TrackEstimate) SlopeY() float64 { return e.Params[idxTY] }

// HasNaN reports whether any parameter or covariance entry is NaN or ±Inf.
func (e TrackEstimate) HasNaN() bool {
	for _, v := range e.Params {
		if !isFinite(v) {
			return true
		}
	}
	for _, v := range e.Cov {
		if !isFinite(v) {
			return true
		}
	}
	return false
}

// invalidEstimate is returned when the information matrix cannot be
// inverted, so the NaN check downstream flags it.
func invalidEstimate() TrackEstimate {
	var e TrackEstimate
	for i := range e.Params {
		e.Params[i] = math.NaN()
	}
	for i := range e.Cov {
		e.Cov[i] = math.NaN()
	}
	return e
}

// infoEstimate is a track state in information form: W = C⁻¹ and w = C⁻¹·p.
// The zero value is the flat prior.
type infoEstimate struct {
	W Mat4
	w Vec4
}

// shift propagates the state by dz along the beam: x' = x + dz·dx/dz.
// In information form W' = F⁻ᵀ W F⁻¹ and w' = F⁻ᵀ w, where F⁻ᵀ only
// subtracts dz times the position rows from the slope rows.
func (e *infoEstimate) shift(dz float64) {
	if dz == 0 {
		return
	}
	var a Mat4 // a = F⁻ᵀ W
	for j := 0; j < stateDim; j++ {
		a[idxX*stateDim+j] = e.W[idxX*stateDim+j]
		a[idxY*stateDim+j] = e.W[idxY*stateDim+j]
		a[idxTX*stateDim+j] = e.W[idxTX*stateDim+j] - dz*e.W[idxX*stateDim+j]
		a[idxTY*stateDim+j] = e.W[idxTY*stateDim+j] - dz*e.W[idxY*stateDim+j]
	}
	for i := 0; i < stateDim; i++ { // W' = a F⁻¹
		e.W[i*stateDim+idxX] = a[i*stateDim+idxX]
		e.W[i*stateDim+idxY] = a[i*stateDim+idxY]
		e.W[i*stateDim+idxTX] = a[i*stateDim+idxTX] - dz*a[i*stateDim+idxX]
		e.W[i*stateDim+idxTY] = a[i*stateDim+idxTY] - dz*a[i*stateDim+idxY]
	}
	e.w[idxTX] -= dz * e.w[idxX]
	e.w[idxTY] -= dz * e.w[idxY]
}

// scatter widens the slope block of the covariance by variance on each
// axis. In information form this is the rank-2 correction
// W' = W − B·inv(Q⁻¹ + W_ss)·Bᵀ with B the slope columns of W.
func (e *infoEstimate) scatter(variance float64) {
	if variance <= 0 {
		return
	}
	inv := 1 / variance
	d00, d01, d11, ok := invert2(
		inv+e.W[idxTX*stateDim+idxTX],
		e.W[idxTX*stateDim+idxTY],
		inv+e.W[idxTY*stateDim+idxTY],
	)
	if !ok {
		return
	}

	// bd = B · D (4×2)
	var bd [stateDim][2]float64
	for r := 0; r < stateDim; r++ {
		b0 := e.W[r*stateDim+idxTX]
		b1 := e.W[r*stateDim+idxTY]
		bd[r][0] = b0*d00 + b1*d01
		bd[r][1] = b0*d01 + b1*d11
	}

	w2, w3 := e.w[idxTX], e.w[idxTY]
	var corr Mat4
	for r := 0; r < stateDim; r++ {
		for c := 0; c < stateDim; c++ {
			corr[r*stateDim+c] = bd[r][0]*e.W[c*stateDim+idxTX] + bd[r][1]*e.W[c*stateDim+idxTY]
		}
	}
	for i := range e.W {
		e.W[i] -= corr[i]
	}
	symmetrize4(&e.W)
	for r := 0; r < stateDim; r++ {
		e.w[r] -= bd[r][0]*w2 + bd[r][1]*w3
	}
}

// addPlane adds the plane's weighted measurements. Every measurement
// contributes proportionally to its weight; the position-position block
// grows by the plane's total weight over the per-axis variance.
func (e *infoEstimate) addPlane(p *Plane) {
	if p.totalWeight == 0 {
		return
	}
	ivx := 1 / (p.SigmaX * p.SigmaX)
	ivy := 1 / (p.SigmaY * p.SigmaY)
	e.W[idxX*stateDim+idxX] += p.totalWeight * ivx
	e.W[idxY*stateDim+idxY] += p.totalWeight * ivy
	for i, m := range p.measurements {
		w := p.weights[i]
		if w == 0 {
			continue
		}
		e.w[idxX] += w * m.X * ivx
		e.w[idxY] += w * m.Y * ivy
	}
}

// combine returns the information sum of two independent estimates.
func combine(a, b *infoEstimate) infoEstimate {
	var out infoEstimate
	out.W = add4(&a.W, &b.W)
	for i := range out.w {
		out.w[i] = a.w[i] + b.w[i]
	}
	return out
}

// estimate converts to covariance form. ok is false when W is singular;
// the returned estimate is then filled with NaN.
func (e *infoEstimate) estimate() (TrackEstimate, bool) {
	cov, ok := invert4(&e.W)
	if !ok {
		return invalidEstimate(), false
	}
	return TrackEstimate{Params: mulVec4(&cov, e.w), Cov: cov}, true
}
