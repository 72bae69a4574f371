package telescope

import (
	"fmt"
	"sort"

	"github.com/banshee-data/teletrack/internal/monitoring"
)

// Stats holds run-level counters accumulated across events.
type Stats struct {
	Events          int `json:"events"`
	Candidates      int `json:"candidates"`
	Accepted        int `json:"accepted"`
	DroppedClusters int `json:"dropped_clusters"`
	PoolExhaustions int `json:"pool_exhaustions"`
	Degenerate      int `json:"degenerate"`
	NonFinite       int `json:"non_finite"`
}

// TrackerSystem owns the plane registry, the candidate pool and the
// estimator. Planes are registered once, Init freezes the geometry, and
// each event then runs Clear → AddMeasurement… → ClusterTracker →
// FitCandidate per candidate.
type TrackerSystem struct {
	Config TrackerConfig

	// DebugCollector captures annealing internals (optional).
	DebugCollector DebugCollector

	planes      []*Plane
	active      []int
	initialized bool
	clustered   bool // ClusterTracker has run for the current event

	finder    *CandidateFinder
	estimator *Estimator
	pool      []*TrackCandidate
	nTracks   int
	dropped   int

	stats Stats
}

// NewTrackerSystem creates a tracker with the given configuration. Planes
// must be added and Init called before any event is processed.
func NewTrackerSystem(cfg TrackerConfig) *TrackerSystem {
	return &TrackerSystem{Config: cfg}
}

// AddPlane registers a detector layer. It fails once Init has run.
func (s *TrackerSystem) AddPlane(sensorID int, z, sigmaX, sigmaY, scatterVariance float64, excluded bool) error {
	if s.initialized {
		return fmt.Errorf("%w: plane for sensor %d added after init", ErrInvalidConfiguration, sensorID)
	}
	if !(sigmaX > 0) || !(sigmaY > 0) {
		return fmt.Errorf("%w: sensor %d resolutions must be positive, got (%g, %g)", ErrInvalidConfiguration, sensorID, sigmaX, sigmaY)
	}
	if scatterVariance < 0 || !isFinite(scatterVariance) || !isFinite(z) {
		return fmt.Errorf("%w: sensor %d has invalid z %g or scatter variance %g", ErrInvalidConfiguration, sensorID, z, scatterVariance)
	}
	s.planes = append(s.planes, &Plane{
		SensorID:        sensorID,
		Z:               z,
		SigmaX:          sigmaX,
		SigmaY:          sigmaY,
		ScatterVariance: scatterVariance,
		Excluded:        excluded,
	})
	return nil
}

// Init sorts the planes by ascending z, derives the active plane sequence
// and allocates the estimator buffers and the candidate pool.
func (s *TrackerSystem) Init() error {
	if s.initialized {
		return fmt.Errorf("%w: init called twice", ErrInvalidConfiguration)
	}
	if err := s.Config.Validate(); err != nil {
		return err
	}
	if len(s.planes) == 0 {
		return fmt.Errorf("%w: no planes registered", ErrInvalidConfiguration)
	}

	sort.SliceStable(s.planes, func(i, j int) bool {
		return s.planes[i].Z < s.planes[j].Z
	})
	for i := 1; i < len(s.planes); i++ {
		if s.planes[i].Z == s.planes[i-1].Z {
			return fmt.Errorf("%w: sensors %d and %d share z = %g", ErrInvalidConfiguration,
				s.planes[i-1].SensorID, s.planes[i].SensorID, s.planes[i].Z)
		}
	}

	s.active = s.active[:0]
	for i, p := range s.planes {
		if !p.Excluded {
			s.active = append(s.active, i)
		}
	}

	s.finder = NewCandidateFinder(FinderParams{
		Radius:         s.Config.ClusterRadius,
		NominalSlopeX:  s.Config.NominalSlopeX,
		NominalSlopeY:  s.Config.NominalSlopeY,
		MinClusterSize: s.Config.MinClusterSize,
	})
	s.estimator = newEstimator(s.planes, s.active, s.Config.Chi2Cutoff, s.Config.UnbiasedWeights)
	s.pool = make([]*TrackCandidate, s.Config.MaxCandidates)
	for i := range s.pool {
		s.pool[i] = newTrackCandidate(len(s.planes))
	}
	s.initialized = true

	monitoring.Logf("telescope: %d planes (%d active), pool of %d candidates", len(s.planes), len(s.active), len(s.pool))
	return nil
}

// Initialized reports whether Init has completed.
func (s *TrackerSystem) Initialized() bool {
	return s.initialized
}

// Planes returns the registered planes, z-sorted once Init has run.
func (s *TrackerSystem) Planes() []*Plane {
	return s.planes
}

// ActivePlanes returns the indexes of the non-excluded planes in z order.
func (s *TrackerSystem) ActivePlanes() []int {
	return s.active
}

// Clear empties every plane's measurements and weights and forgets the
// previous event's candidates.
func (s *TrackerSystem) Clear() {
	for _, p := range s.planes {
		p.clear()
	}
	s.nTracks = 0
	s.dropped = 0
	s.clustered = false
}

// AddMeasurement appends a hit to the plane at the z-sorted index. Hits
// cannot be added once ClusterTracker has run for the event, since the
// candidates' weight lists are sized to the planes at that point.
func (s *TrackerSystem) AddMeasurement(planeIndex int, x, y, z float64, goodRegion bool, sourceID int) error {
	if !s.initialized {
		return fmt.Errorf("%w: measurement added before init", ErrInvalidConfiguration)
	}
	if s.clustered {
		return fmt.Errorf("%w: measurement added after clustering; call Clear first", ErrInvalidConfiguration)
	}
	if planeIndex < 0 || planeIndex >= len(s.planes) {
		return fmt.Errorf("%w: plane index %d out of range [0, %d)", ErrInvalidConfiguration, planeIndex, len(s.planes))
	}
	s.planes[planeIndex].addMeasurement(Measurement{
		X:          x,
		Y:          y,
		Z:          z,
		GoodRegion: goodRegion,
		SourceID:   sourceID,
	})
	return nil
}

// NTracks returns the number of candidates produced for the current event.
func (s *TrackerSystem) NTracks() int {
	return s.nTracks
}

// Candidates returns the current event's candidates in discovery order.
func (s *TrackerSystem) Candidates() []*TrackCandidate {
	return s.pool[:s.nTracks]
}

// DroppedClusters returns how many qualifying clusters of the current
// event did not fit in the candidate pool.
func (s *TrackerSystem) DroppedClusters() int {
	return s.dropped
}

// PoolExhausted returns an error wrapping ErrCandidatePoolExhausted when
// the current event overflowed the candidate pool, else nil.
func (s *TrackerSystem) PoolExhausted() error {
	if s.dropped == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d candidates kept, %d clusters dropped", ErrCandidatePoolExhausted, s.nTracks, s.dropped)
}

// Stats returns the run-level counters.
func (s *TrackerSystem) Stats() Stats {
	return s.stats
}

// ClusterTracker runs the candidate finder over the active planes and
// fills the candidate pool. Each absorbed hit starts with weight 1.
// Clusters beyond the pool size are dropped and reported.
func (s *TrackerSystem) ClusterTracker() int {
	if !s.initialized {
		return 0
	}
	for _, p := range s.planes {
		p.resetWeights()
	}
	s.nTracks = 0
	s.dropped = 0
	s.clustered = true

	_, dropped := s.finder.Find(s.planes, s.active, func(cluster []HitRef) bool {
		if s.nTracks >= len(s.pool) {
			return false
		}
		c := s.pool[s.nTracks]
		c.reset(s.planes, s.Config.MinPlaneWeight)
		for _, h := range cluster {
			c.Weights[h.Plane][h.Index] = 1
		}
		s.nTracks++
		return true
	})
	s.dropped = dropped
	s.stats.Candidates += s.nTracks

	if dropped > 0 {
		s.stats.DroppedClusters += dropped
		s.stats.PoolExhaustions++
		monitoring.Warnf("telescope: %v", s.PoolExhausted())
	}
	return s.nTracks
}

// FitPlanesInfoDaf runs the annealed forward/backward information filter
// on the candidate, starting from its current weights. The candidate
// receives the final weights and smoothed estimates.
func (s *TrackerSystem) FitPlanesInfoDaf(c *TrackCandidate) FitStatus {
	for i, p := range s.planes {
		p.loadWeights(c.Weights[i])
	}
	s.estimator.debug = s.DebugCollector
	status := s.estimator.Anneal(s.Config.Temperatures)

	for i, p := range s.planes {
		copy(c.Weights[i], p.weights)
		c.Estimates[i] = s.estimator.smoothed[i]
	}
	c.Status = status
	return status
}

// FitCandidate fits the candidate and fills chi2, ndof and residuals.
// Degenerate fits, including clusters whose hits cover fewer than two
// planes, end with ndof ≤ 0. Non-finite fits are rejected by forcing ndof
// to zero when the NaN check is enabled.
func (s *TrackerSystem) FitCandidate(c *TrackCandidate) {
	status := s.FitPlanesInfoDaf(c)

	c.NDOF = s.estimator.NDOF()
	c.Chi2 = s.estimator.Chi2()
	c.residuals = c.residuals[:0]
	for _, i := range s.active {
		ref := c.Assigned(i)
		j, ok := ref.Index()
		if !ok {
			continue
		}
		p := s.planes[i]
		_, dx, dy, vx, vy := hitChi2(p, p.measurements[j], s.estimator.residualReference(i))
		c.residuals = append(c.residuals, Residual{Plane: i, Hit: ref, DX: dx, DY: dy, VarX: vx, VarY: vy})
	}

	switch {
	case status == FitDegenerate:
		s.stats.Degenerate++
		if c.NDOF > 0 {
			// Too few weighted planes to constrain a line.
			c.NDOF = 0
		}
		if !isFinite(c.Chi2) {
			c.Chi2 = 0
		}
	case status == FitNonFinite || c.HasNaN():
		s.stats.NonFinite++
		if s.Config.NaNCheck {
			c.Status = FitNonFinite
			c.NDOF = 0
			c.Chi2 = 0
			monitoring.Warnf("telescope: rejected candidate with non-finite estimates")
		}
	}
}

// FitCandidates fits every candidate of the current event in order.
func (s *TrackerSystem) FitCandidates() {
	for _, c := range s.Candidates() {
		s.FitCandidate(c)
	}
}

// ProcessEvent loads one event, finds and fits its candidates and returns
// the accepted ones. The returned candidates are owned by the pool and
// valid until the next event.
func (s *TrackerSystem) ProcessEvent(ev Event) ([]*TrackCandidate, error) {
	if !s.initialized {
		return nil, fmt.Errorf("%w: event %d processed before init", ErrInvalidConfiguration, ev.Number)
	}
	s.Clear()
	for _, h := range ev.Hits {
		if err := s.AddMeasurement(h.Plane, h.X, h.Y, h.Z, h.GoodRegion, h.SourceID); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Number, err)
		}
	}
	s.stats.Events++
	s.ClusterTracker()
	s.FitCandidates()
	accepted := s.AcceptedCandidates()
	s.stats.Accepted += len(accepted)
	return accepted, nil
}
