package telescope

// Measurement is a single hit observed on a plane in the current event.
type Measurement struct {
	X          float64
	Y          float64
	Z          float64
	GoodRegion bool // Hit lies inside the analysis region of its sensor
	SourceID   int  // Opaque identifier handed back to the caller
}

// MeasurementRef points at one measurement on a plane, or at nothing.
type MeasurementRef struct {
	index int
	valid bool
}

// NoMeasurement is the absent reference.
var NoMeasurement = MeasurementRef{}

// RefTo returns a reference to measurement index i.
func RefTo(i int) MeasurementRef {
	return MeasurementRef{index: i, valid: true}
}

// Index returns the referenced measurement index and whether one is present.
func (r MeasurementRef) Index() (int, bool) {
	return r.index, r.valid
}

// Present reports whether the reference points at a measurement.
func (r MeasurementRef) Present() bool { return r.valid }

// HitRef identifies a measurement by plane and position in that plane's list.
type HitRef struct {
	Plane int
	Index int
}
