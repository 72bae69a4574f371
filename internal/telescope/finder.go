package telescope

import "sort"

// FinderParams configures the radius-clustering candidate finder.
type FinderParams struct {
	Radius         float64 // Cluster radius in the projected plane (mm)
	NominalSlopeX  float64 // Beam dx/dz removed before projecting to z = 0
	NominalSlopeY  float64 // Beam dy/dz removed before projecting to z = 0
	MinClusterSize int     // Minimum absorbed hits for a cluster to become a candidate
}

// projectedHit is a measurement projected onto the z = 0 reference plane.
type projectedHit struct {
	ref     HitRef
	x, y    float64
	r2      float64
	claimed bool
}

// CandidateFinder groups hits from all active planes into clusters of hits
// that lie within Radius of one another after removing the nominal beam
// slope. The pool and member buffers are reused between events.
type CandidateFinder struct {
	params FinderParams

	hits    []projectedHit
	members []int
	refs    []HitRef
}

// NewCandidateFinder creates a finder with the given parameters.
func NewCandidateFinder(params FinderParams) *CandidateFinder {
	return &CandidateFinder{params: params}
}

// Params returns the finder's current parameters.
func (f *CandidateFinder) Params() FinderParams {
	return f.params
}

// SetParams replaces the finder's parameters.
func (f *CandidateFinder) SetParams(params FinderParams) {
	f.params = params
}

// Find clusters the hits on the given active planes. emit is called once
// per cluster holding at least MinClusterSize hits, in discovery order;
// the slice passed to emit is only valid for the duration of the call.
// Returning false from emit marks the cluster as not kept.
// Find returns the number of qualifying clusters and how many were not kept.
func (f *CandidateFinder) Find(planes []*Plane, active []int, emit func(cluster []HitRef) bool) (found, dropped int) {
	f.project(planes, active)
	if len(f.hits) == 0 || len(active) < f.params.MinClusterSize {
		return 0, 0
	}

	radiusSq := f.params.Radius * f.params.Radius
	for seed := range f.hits {
		if f.hits[seed].claimed {
			continue
		}
		f.hits[seed].claimed = true
		f.members = append(f.members[:0], seed)

		// Absorb until a full pass adds nothing.
		for grew := true; grew; {
			grew = false
			for j := range f.hits {
				h := &f.hits[j]
				if h.claimed {
					continue
				}
				for _, m := range f.members {
					dx := h.x - f.hits[m].x
					dy := h.y - f.hits[m].y
					if dx*dx+dy*dy < radiusSq {
						h.claimed = true
						f.members = append(f.members, j)
						grew = true
						break
					}
				}
			}
		}

		if len(f.members) < f.params.MinClusterSize {
			continue
		}
		found++
		f.refs = f.refs[:0]
		for _, m := range f.members {
			f.refs = append(f.refs, f.hits[m].ref)
		}
		if !emit(f.refs) {
			dropped++
		}
	}
	return found, dropped
}

// project fills the hit pool with every measurement of the active planes,
// shifted to z = 0 along the nominal slope and ordered by descending
// radius. Equal radii keep plane/measurement order.
func (f *CandidateFinder) project(planes []*Plane, active []int) {
	f.hits = f.hits[:0]
	for _, pi := range active {
		p := planes[pi]
		for mi, m := range p.measurements {
			x := m.X - f.params.NominalSlopeX*p.Z
			y := m.Y - f.params.NominalSlopeY*p.Z
			f.hits = append(f.hits, projectedHit{
				ref: HitRef{Plane: pi, Index: mi},
				x:   x,
				y:   y,
				r2:  x*x + y*y,
			})
		}
	}
	sort.SliceStable(f.hits, func(i, j int) bool {
		return f.hits[i].r2 > f.hits[j].r2
	})
}
