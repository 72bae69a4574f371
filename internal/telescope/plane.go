package telescope

// Plane is one detector layer. Static fields are set once by AddPlane;
// the measurement and weight lists are refreshed every event.
type Plane struct {
	SensorID        int
	Z               float64 // Position along the beam axis (mm)
	SigmaX          float64 // Intrinsic resolution in x (mm)
	SigmaY          float64 // Intrinsic resolution in y (mm)
	ScatterVariance float64 // Angular variance added to both slopes when crossing this plane (rad²)
	Excluded        bool    // Plane is propagated through but its hits are never used

	measurements []Measurement
	weights      []float64
	totalWeight  float64
}

// Measurements returns the hits observed on the plane this event.
// The slice is owned by the plane and valid until the next Clear.
func (p *Plane) Measurements() []Measurement {
	return p.measurements
}

// Weights returns the current per-measurement DAF weights.
func (p *Plane) Weights() []float64 {
	return p.weights
}

// TotalWeight returns the sum of the current weights.
func (p *Plane) TotalWeight() float64 {
	return p.totalWeight
}

func (p *Plane) clear() {
	p.measurements = p.measurements[:0]
	p.weights = p.weights[:0]
	p.totalWeight = 0
}

func (p *Plane) addMeasurement(m Measurement) {
	p.measurements = append(p.measurements, m)
	p.weights = append(p.weights, 0)
}

// loadWeights copies w into the plane's weight list and recomputes the total.
// Hits beyond len(w) get weight zero.
func (p *Plane) loadWeights(w []float64) {
	p.totalWeight = 0
	for i := range p.weights {
		p.weights[i] = 0
		if i < len(w) {
			p.weights[i] = w[i]
		}
		p.totalWeight += p.weights[i]
	}
}

// resetWeights zeroes every weight on the plane.
func (p *Plane) resetWeights() {
	for i := range p.weights {
		p.weights[i] = 0
	}
	p.totalWeight = 0
}
