package telescope

// Hit is one raw measurement as delivered by an event loader.
type Hit struct {
	Plane      int // z-sorted plane index established by Init
	X          float64
	Y          float64
	Z          float64
	GoodRegion bool
	SourceID   int
}

// Event groups the hits read out for one trigger.
type Event struct {
	Number int
	Hits   []Hit
}
