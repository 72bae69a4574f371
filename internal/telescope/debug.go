package telescope

// DebugCollector receives per-iteration internals of the annealed fit.
// It mirrors the tracker's instrumentation hooks and is optional.
type DebugCollector interface {
	IsEnabled() bool
	// RecordWeights is called after each re-weighting step with the
	// weights just computed for one active plane.
	RecordWeights(iteration int, temperature float64, plane int, weights []float64, total float64)
	// RecordNDOF is called after each re-weighting step with the
	// effective degrees of freedom.
	RecordNDOF(iteration int, temperature float64, ndof float64)
}
