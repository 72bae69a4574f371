// Package telescope owns track reconstruction for a beam-test telescope:
// a stack of parallel planar detectors read out once per event.
//
// Responsibilities: the z-ordered plane registry, radius-clustering of
// projected hits into track candidates, and the annealed information-filter
// smoother (Deterministic Annealing Filter) that fits each candidate and
// soft-assigns ambiguous hits.
// Key types: TrackerSystem, Plane, Measurement, TrackCandidate, TrackEstimate.
//
// The package is single-threaded and performs no I/O. Geometry loading,
// event decoding and histogramming live in collaborating packages that
// talk to the core only through AddPlane, Clear/AddMeasurement and the
// resulting candidates.
package telescope
