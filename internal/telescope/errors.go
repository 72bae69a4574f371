package telescope

import "errors"

var (
	// ErrInvalidConfiguration wraps every setup-time failure: planes added
	// after Init, Init called twice, duplicate plane positions, bad
	// parameters or plane indices.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCandidatePoolExhausted is reported, never returned as a failure,
	// when an event produces more clusters than the candidate pool holds.
	ErrCandidatePoolExhausted = errors.New("candidate pool exhausted")
)
