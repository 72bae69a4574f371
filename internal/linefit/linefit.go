package linefit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the hits do not constrain the track.
var ErrSingular = errors.New("linefit: normal equations are singular")

// Plane is the geometry of one detector layer.
type Plane struct {
	Z               float64
	SigmaX          float64
	SigmaY          float64
	ScatterVariance float64
}

// Point is the measurement used on a plane. A zero Weight means the plane
// has no measurement in the fit.
type Point struct {
	X      float64
	Y      float64
	Weight float64
}

// State is the fitted track at one plane. The slope is the one leaving
// the plane.
type State struct {
	X      float64
	Y      float64
	SlopeX float64
	SlopeY float64
}

// Result holds the per-plane states and fit quality.
type Result struct {
	States []State
	Chi2   float64
	NDOF   float64
}

// Fit solves for the straight track with kinks through the given planes.
// Planes must be ordered by ascending z and points must be index-aligned
// with planes.
func Fit(planes []Plane, points []Point) (*Result, error) {
	if len(planes) != len(points) {
		return nil, fmt.Errorf("linefit: %d planes but %d points", len(planes), len(points))
	}
	if len(planes) < 2 {
		return nil, fmt.Errorf("linefit: need at least 2 planes, got %d", len(planes))
	}

	// Kinks only matter at interior planes: one before the first plane
	// or after the last is never observed.
	var kinks []int
	for k := 1; k < len(planes)-1; k++ {
		if planes[k].ScatterVariance > 0 {
			kinks = append(kinks, k)
		}
	}

	zs := make([]float64, len(planes))
	xs := make([]float64, len(planes))
	ys := make([]float64, len(planes))
	wx := make([]float64, len(planes))
	wy := make([]float64, len(planes))
	var sumW float64
	for i, p := range planes {
		zs[i] = p.Z
		xs[i] = points[i].X
		ys[i] = points[i].Y
		if w := points[i].Weight; w > 0 {
			wx[i] = w / (p.SigmaX * p.SigmaX)
			wy[i] = w / (p.SigmaY * p.SigmaY)
			sumW += w
		}
	}

	ax, err := fitAxis(zs, xs, wx, planes, kinks)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	ay, err := fitAxis(zs, ys, wy, planes, kinks)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}

	res := &Result{
		States: make([]State, len(planes)),
		Chi2:   ax.chi2 + ay.chi2,
		NDOF:   2*sumW - 4,
	}
	for i := range planes {
		res.States[i] = State{X: ax.pos[i], Y: ay.pos[i], SlopeX: ax.slope[i], SlopeY: ay.slope[i]}
	}
	return res, nil
}

type axisFit struct {
	pos   []float64
	slope []float64
	chi2  float64
}

// fitAxis solves one projection. Parameters are the position and slope at
// the first plane followed by one kink per scattering plane.
func fitAxis(zs, vals, ws []float64, planes []Plane, kinks []int) (*axisFit, error) {
	n := 2 + len(kinks)
	row := func(j int, a []float64) {
		a[0] = 1
		a[1] = zs[j] - zs[0]
		for q, k := range kinks {
			if k < j {
				a[2+q] = zs[j] - zs[k]
			} else {
				a[2+q] = 0
			}
		}
	}

	normal := mat.NewSymDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	a := make([]float64, n)
	for j := range zs {
		if ws[j] == 0 {
			continue
		}
		row(j, a)
		for r := 0; r < n; r++ {
			rhs.SetVec(r, rhs.AtVec(r)+ws[j]*a[r]*vals[j])
			for c := r; c < n; c++ {
				normal.SetSym(r, c, normal.At(r, c)+ws[j]*a[r]*a[c])
			}
		}
	}
	for q, k := range kinks {
		normal.SetSym(2+q, 2+q, normal.At(2+q, 2+q)+1/planes[k].ScatterVariance)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(normal); !ok {
		return nil, ErrSingular
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := &axisFit{
		pos:   make([]float64, len(zs)),
		slope: make([]float64, len(zs)),
	}
	for j := range zs {
		row(j, a)
		var p float64
		for r := 0; r < n; r++ {
			p += a[r] * sol.AtVec(r)
		}
		out.pos[j] = p

		s := sol.AtVec(1)
		for q, k := range kinks {
			if k <= j {
				s += sol.AtVec(2 + q)
			}
		}
		out.slope[j] = s

		if ws[j] > 0 {
			d := vals[j] - p
			out.chi2 += ws[j] * d * d
		}
	}
	for q, k := range kinks {
		kink := sol.AtVec(2 + q)
		out.chi2 += kink * kink / planes[k].ScatterVariance
	}
	return out, nil
}
