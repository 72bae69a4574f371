package telescope

// RejectReason explains why a fitted candidate failed the acceptance cuts.
type RejectReason string

const (
	RejectNone      RejectReason = ""
	RejectNonFinite RejectReason = "non_finite" // NaN/Inf in the fit
	RejectNDOF      RejectReason = "ndof"       // Too few effective degrees of freedom
	RejectChi2      RejectReason = "chi2"       // chi2/ndof above the maximum
	RejectPlanes    RejectReason = "planes"     // Too few active planes with weight
)

// Accept applies the acceptance cuts to a fitted candidate.
func (s *TrackerSystem) Accept(c *TrackCandidate) (bool, RejectReason) {
	if c.Status == FitDegenerate {
		return false, RejectNDOF
	}
	if c.Status == FitNonFinite || c.HasNaN() {
		return false, RejectNonFinite
	}
	if c.NDOF <= 0 || c.NDOF < s.Config.AcceptMinNDOF {
		return false, RejectNDOF
	}
	if c.Chi2/c.NDOF > s.Config.AcceptMaxChi2NDOF {
		return false, RejectChi2
	}
	if s.weightedPlanes(c) < s.Config.AcceptMinPlanes {
		return false, RejectPlanes
	}
	return true, RejectNone
}

// weightedPlanes counts the active planes whose total weight reaches the
// configured minimum plane weight.
func (s *TrackerSystem) weightedPlanes(c *TrackCandidate) int {
	n := 0
	for _, i := range s.active {
		if c.TotalWeight(i) >= s.Config.MinPlaneWeight && c.TotalWeight(i) > 0 {
			n++
		}
	}
	return n
}

// AcceptedCandidates returns the current event's candidates that pass
// Accept, in discovery order.
func (s *TrackerSystem) AcceptedCandidates() []*TrackCandidate {
	var out []*TrackCandidate
	for _, c := range s.Candidates() {
		if ok, _ := s.Accept(c); ok {
			out = append(out, c)
		}
	}
	return out
}
