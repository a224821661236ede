package store

// Run identifies one recorded simulation.
type Run struct {
	ID        string  `json:"id"`
	Topology  string  `json:"topology"`
	Summary   Summary `json:"summary"`
	StartTick int64   `json:"start_tick"`
	// FinalTick is nil while the run is still recording.
	FinalTick *int64 `json:"final_tick,omitempty"`
}

// Summary counts the components of a run's topology.
type Summary struct {
	Sources   int `json:"sources"`
	Belts     int `json:"belts"`
	Buildings int `json:"buildings"`
	Sinks     int `json:"sinks"`
}

// Sample is one component's value at one tick: produced total for a
// source, occupancy for a belt, held units for a building, delivered total
// for a sink.
type Sample struct {
	Tick      int64  `json:"tick"`
	Component string `json:"component"`
	Kind      string `json:"kind"`
	Value     int64  `json:"value"`
}

// Delivery is one unit taken by a sink. Seq orders deliveries within a run.
type Delivery struct {
	Seq      int64  `json:"seq"`
	Tick     int64  `json:"tick"`
	Sink     string `json:"sink"`
	Material string `json:"material"`
}
