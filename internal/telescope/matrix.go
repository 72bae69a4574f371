package telescope

import "math"

// State vector layout shared by every estimate: x, y, dx/dz, dy/dz.
const (
	idxX  = 0
	idxY  = 1
	idxTX = 2
	idxTY = 3

	stateDim = 4
)

// Mat4 is a 4×4 row-major matrix.
type Mat4 [16]float64

// Vec4 is a state-sized vector.
type Vec4 [4]float64

// At returns element (i, j).
func (m *Mat4) At(i, j int) float64 { return m[i*stateDim+j] }

// Set writes element (i, j).
func (m *Mat4) Set(i, j int, v float64) { m[i*stateDim+j] = v }

// identity4 returns the 4×4 identity matrix.
func identity4() Mat4 {
	var m Mat4
	for i := 0; i < stateDim; i++ {
		m[i*stateDim+i] = 1
	}
	return m
}

// add4 returns a + b.
func add4(a, b *Mat4) Mat4 {
	var out Mat4
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}

// mulVec4 returns m · v.
func mulVec4(m *Mat4, v Vec4) Vec4 {
	var out Vec4
	for i := 0; i < stateDim; i++ {
		var s float64
		for j := 0; j < stateDim; j++ {
			s += m[i*stateDim+j] * v[j]
		}
		out[i] = s
	}
	return out
}

// symmetrize4 averages off-diagonal pairs to remove rounding asymmetry.
func symmetrize4(m *Mat4) {
	for i := 0; i < stateDim; i++ {
		for j := i + 1; j < stateDim; j++ {
			v := 0.5 * (m[i*stateDim+j] + m[j*stateDim+i])
			m[i*stateDim+j] = v
			m[j*stateDim+i] = v
		}
	}
}

// pivotTolerance is the smallest acceptable pivot relative to the largest
// matrix element during inversion.
const pivotTolerance = 1e-14

// invert4 inverts m by Gauss-Jordan elimination with partial pivoting.
// ok is false when m is singular to working precision.
func invert4(m *Mat4) (inv Mat4, ok bool) {
	a := *m
	inv = identity4()

	var scale float64
	for _, v := range a {
		if av := math.Abs(v); av > scale {
			scale = av
		}
	}
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return inv, false
	}

	for col := 0; col < stateDim; col++ {
		pivot := col
		best := math.Abs(a[col*stateDim+col])
		for r := col + 1; r < stateDim; r++ {
			if v := math.Abs(a[r*stateDim+col]); v > best {
				best = v
				pivot = r
			}
		}
		if best <= pivotTolerance*scale {
			return inv, false
		}
		if pivot != col {
			for j := 0; j < stateDim; j++ {
				a[col*stateDim+j], a[pivot*stateDim+j] = a[pivot*stateDim+j], a[col*stateDim+j]
				inv[col*stateDim+j], inv[pivot*stateDim+j] = inv[pivot*stateDim+j], inv[col*stateDim+j]
			}
		}

		d := 1 / a[col*stateDim+col]
		for j := 0; j < stateDim; j++ {
			a[col*stateDim+j] *= d
			inv[col*stateDim+j] *= d
		}
		for r := 0; r < stateDim; r++ {
			if r == col {
				continue
			}
			f := a[r*stateDim+col]
			if f == 0 {
				continue
			}
			for j := 0; j < stateDim; j++ {
				a[r*stateDim+j] -= f * a[col*stateDim+j]
				inv[r*stateDim+j] -= f * inv[col*stateDim+j]
			}
		}
	}
	symmetrize4(&inv)
	return inv, true
}

// invert2 inverts the symmetric 2×2 matrix [[a, b], [b, c]] in closed form.
func invert2(a, b, c float64) (ia, ib, ic float64, ok bool) {
	det := a*c - b*b
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return 0, 0, 0, false
	}
	return c / det, -b / det, a / det, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
